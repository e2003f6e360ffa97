// Package notifier keeps the single persistent status notification current.
package notifier

import (
	"fmt"
	"sync"

	"github.com/ukydev/device-monitor/internal/models"
	"github.com/ukydev/device-monitor/internal/tracklog"
)

// Notification constants shared with the host.
const (
	NotificationID = 1
	ChannelID      = "location_service_channel"
	Title          = "Location Service"
	InitialText    = "Tracking your location in the background"
)

// Display posts notifications on the host.
type Display interface {
	CreateChannel(ch models.NotificationChannel) error
	Notify(id int, n models.Notification) error
}

// Notifier rewrites notification 1 with the latest position and battery.
type Notifier struct {
	display Display

	once       sync.Once
	channelErr error
}

// New creates a Notifier over the given display.
func New(display Display) *Notifier {
	return &Notifier{display: display}
}

// EnsureChannel creates the low-importance, silent channel. Only the first
// call reaches the display.
func (n *Notifier) EnsureChannel() error {
	n.once.Do(func() {
		n.channelErr = n.display.CreateChannel(models.NotificationChannel{
			ID:          ChannelID,
			Name:        "Location Service Channel",
			Description: "Channel for Location Service",
			Importance:  "low",
			Silent:      true,
		})
	})
	if n.channelErr != nil {
		return fmt.Errorf("create notification channel: %w", n.channelErr)
	}
	return nil
}

// ShowInitial posts the notification shown before the first sample.
func (n *Notifier) ShowInitial() error {
	return n.post(InitialText)
}

// Update replaces the notification text with the given sample.
func (n *Notifier) Update(lat, lon float64, batteryPercent int) error {
	text := fmt.Sprintf("Lat: %s, Long: %s, Battery: %d%%",
		tracklog.FormatDouble(lat),
		tracklog.FormatDouble(lon),
		batteryPercent,
	)
	return n.post(text)
}

func (n *Notifier) post(text string) error {
	err := n.display.Notify(NotificationID, models.Notification{
		ChannelID: ChannelID,
		Title:     Title,
		Text:      text,
		Priority:  "low",
		Ongoing:   true,
	})
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}
