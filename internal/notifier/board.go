package notifier

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/models"
)

// StatusBoard is an in-memory Display. Posting to an id replaces whatever
// was there.
type StatusBoard struct {
	mu            sync.RWMutex
	channels      map[string]models.NotificationChannel
	notifications map[int]models.Notification
}

// NewStatusBoard creates an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{
		channels:      make(map[string]models.NotificationChannel),
		notifications: make(map[int]models.Notification),
	}
}

// CreateChannel implements Display.
func (b *StatusBoard) CreateChannel(ch models.NotificationChannel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels[ch.ID] = ch
	log.WithFields(log.Fields{"channel_id": ch.ID, "importance": ch.Importance}).Debug("Notification channel created")
	return nil
}

// Notify implements Display.
func (b *StatusBoard) Notify(id int, n models.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications[id] = n
	log.WithFields(log.Fields{"notification_id": id, "text": n.Text}).Debug("Notification updated")
	return nil
}

// Get returns the notification currently posted under id.
func (b *StatusBoard) Get(id int) (models.Notification, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.notifications[id]
	return n, ok
}

// IDs returns the ids of all posted notifications in ascending order.
func (b *StatusBoard) IDs() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]int, 0, len(b.notifications))
	for id := range b.notifications {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Channels returns how many channels have been created.
func (b *StatusBoard) Channels() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels)
}
