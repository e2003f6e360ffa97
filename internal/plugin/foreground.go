package plugin

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/models"
)

// Loop is the sampling loop run in the foreground.
type Loop interface {
	Start(cfg models.SamplingConfig) error
	Stop()
}

// StatusNotification is the notification shown while the service runs.
type StatusNotification interface {
	EnsureChannel() error
	ShowInitial() error
}

// ForegroundService is the ForegroundRunner for a long-lived host process.
// The notification channel and the initial notification are set up on the
// first start only.
type ForegroundService struct {
	loop   Loop
	status StatusNotification

	once sync.Once
}

// NewForegroundService creates a ForegroundService.
func NewForegroundService(loop Loop, status StatusNotification) *ForegroundService {
	return &ForegroundService{loop: loop, status: status}
}

// Start implements ForegroundRunner.
func (f *ForegroundService) Start(cfg models.SamplingConfig) error {
	f.once.Do(func() {
		if err := f.status.EnsureChannel(); err != nil {
			log.WithError(err).Warn("Failed to create notification channel")
		}
		if err := f.status.ShowInitial(); err != nil {
			log.WithError(err).Warn("Failed to post initial notification")
		}
	})
	return f.loop.Start(cfg)
}

// Stop implements ForegroundRunner.
func (f *ForegroundService) Stop() error {
	f.loop.Stop()
	return nil
}
