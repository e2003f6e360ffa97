package sampler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ukydev/device-monitor/internal/models"
)

var (
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrBatteryUnavailable  = errors.New("battery level unavailable")
)

// LocationSource delivers continuous high-accuracy location updates.
type LocationSource interface {
	RequestUpdates(interval time.Duration, onFix func(models.Fix)) error
	RemoveUpdates() error
}

// BatteryReader reads the current battery charge percentage.
type BatteryReader interface {
	BatteryPercent() (int, error)
}

// Sampler combines the latest location update with a fresh battery read.
type Sampler struct {
	source  LocationSource
	battery BatteryReader
	now     func() time.Time

	mu     sync.Mutex
	latest *models.Fix
}

// New creates a Sampler over the given adapters.
func New(source LocationSource, battery BatteryReader) *Sampler {
	return &Sampler{
		source:  source,
		battery: battery,
		now:     time.Now,
	}
}

// Subscribe (re)requests location updates at the given interval.
func (s *Sampler) Subscribe(interval time.Duration) error {
	if err := s.source.RequestUpdates(interval, s.onFix); err != nil {
		return fmt.Errorf("request location updates: %w", err)
	}
	return nil
}

// Unsubscribe stops location updates and forgets the last fix.
func (s *Sampler) Unsubscribe() error {
	err := s.source.RemoveUpdates()
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("remove location updates: %w", err)
	}
	return nil
}

func (s *Sampler) onFix(fix models.Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &fix
}

// Sample returns the most recent position together with the battery level.
func (s *Sampler) Sample() (models.PositionSample, error) {
	s.mu.Lock()
	fix := s.latest
	s.mu.Unlock()
	if fix == nil {
		return models.PositionSample{}, ErrPositionUnavailable
	}

	pct, err := s.battery.BatteryPercent()
	if err != nil {
		return models.PositionSample{}, fmt.Errorf("%w: %v", ErrBatteryUnavailable, err)
	}
	if pct < 0 || pct > 100 {
		return models.PositionSample{}, fmt.Errorf("%w: reading %d out of range", ErrBatteryUnavailable, pct)
	}

	return models.PositionSample{
		Timestamp:      s.now().Local().Format(models.TimestampLayout),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		BatteryPercent: pct,
	}, nil
}
