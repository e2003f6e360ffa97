// Package scheduler owns the repeating timer that drives the sampling loop
// and the per-tick pipeline: sample, evaluate geofences, append the log
// record, update the status notification and publish to the host.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/geofence"
	"github.com/ukydev/device-monitor/internal/metrics"
	"github.com/ukydev/device-monitor/internal/models"
	"github.com/ukydev/device-monitor/internal/publisher"
	"github.com/ukydev/device-monitor/internal/sampler"
)

var ErrInvalidInterval = errors.New("interval must be positive")

// State of the scheduler.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

const mirrorTimeout = 5 * time.Second

// Sampler produces one position sample per tick.
type Sampler interface {
	Subscribe(interval time.Duration) error
	Unsubscribe() error
	Sample() (models.PositionSample, error)
}

// LogWriter appends one record per tick.
type LogWriter interface {
	Append(rec models.LogRecord) error
}

// RecordMirror optionally stores a copy of each record elsewhere.
type RecordMirror interface {
	InsertRecord(ctx context.Context, rec models.LogRecord) error
}

// StatusNotifier keeps the status notification current.
type StatusNotifier interface {
	Update(lat, lon float64, batteryPercent int) error
}

// EventPublisher forwards the tick's event to the host.
type EventPublisher interface {
	Publish(evt models.LocationUpdate)
}

// Deps are the collaborators of a tick. Mirror and Metrics may be nil.
type Deps struct {
	Sampler            Sampler
	Writer             LogWriter
	Mirror             RecordMirror
	Notifier           StatusNotifier
	Publisher          EventPublisher
	Metrics            *metrics.Metrics
	LegacyNullDistance bool
}

// Scheduler runs at most one sampling loop. The delay before the next tick
// is measured from the end of the previous one.
type Scheduler struct {
	deps Deps

	// cfg is swapped as a whole; ticks only ever see a complete config.
	cfg atomic.Pointer[models.SamplingConfig]

	mu      sync.Mutex
	state   State
	gen     uint64
	session string
	timer   *time.Timer

	// tickMu serializes the side effects of overlapping ticks.
	tickMu sync.Mutex
}

// New creates a stopped scheduler.
func New(deps Deps) *Scheduler {
	return &Scheduler{deps: deps, state: StateStopped}
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the active config, or nil when stopped.
func (s *Scheduler) Config() *models.SamplingConfig {
	return s.cfg.Load()
}

// Start cancels any running timer, installs cfg and fires a tick right away.
// Calling Start while running reconfigures the loop.
func (s *Scheduler) Start(cfg models.SamplingConfig) error {
	if cfg.Interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	gen := s.gen
	s.session = uuid.NewString()
	s.cfg.Store(&cfg)
	s.state = StateRunning

	if err := s.deps.Sampler.Subscribe(cfg.Interval); err != nil {
		log.WithError(err).Warn("Failed to request location updates")
	}

	s.timer = time.AfterFunc(0, func() { s.fire(gen) })

	log.WithFields(log.Fields{
		"session_id": s.session,
		"interval":   cfg.Interval,
		"geofences":  len(cfg.Geofences),
		"user_id":    cfg.UserID,
	}).Info("Sampling loop started")
	return nil
}

// Stop cancels future ticks and releases the location subscription. A tick
// already in flight finishes without side effects.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.state = StateStopped
	s.cfg.Store(nil)

	if err := s.deps.Sampler.Unsubscribe(); err != nil {
		log.WithError(err).Warn("Failed to remove location updates")
	}
	log.WithField("session_id", s.session).Info("Sampling loop stopped")
	s.session = ""
}

// current returns the session and config of gen while it is still live.
func (s *Scheduler) current(gen uint64) (string, *models.SamplingConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning || s.gen != gen {
		return "", nil, false
	}
	return s.session, s.cfg.Load(), true
}

func (s *Scheduler) fire(gen uint64) {
	s.tick(gen)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning || s.gen != gen {
		return
	}
	cfg := s.cfg.Load()
	s.timer = time.AfterFunc(cfg.Interval, func() { s.fire(gen) })
}

func (s *Scheduler) tick(gen uint64) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	session, cfg, ok := s.current(gen)
	if !ok {
		s.deps.Metrics.ObserveTick(metrics.OutcomeStoppedInFlight, time.Since(start).Seconds())
		return
	}
	logger := log.WithField("session_id", session)

	sample, err := s.deps.Sampler.Sample()
	switch {
	case errors.Is(err, sampler.ErrPositionUnavailable):
		logger.Debug("No location fix yet, skipping tick")
		s.deps.Metrics.ObserveTick(metrics.OutcomeNoPosition, time.Since(start).Seconds())
		return
	case err != nil:
		logger.WithError(err).Warn("Failed to sample, skipping tick")
		s.deps.Metrics.ObserveTick(metrics.OutcomeNoBattery, time.Since(start).Seconds())
		return
	}

	readings := geofence.Evaluate(sample.Latitude, sample.Longitude, cfg.Geofences)
	rec := models.LogRecord{
		SessionID: session,
		Sample:    sample,
		UserID:    cfg.UserID,
		Readings:  readings,
	}

	if err := s.deps.Writer.Append(rec); err != nil {
		s.deps.Metrics.IncLogWriteFailures()
		logger.WithError(err).Error("Failed to write log record")
	}

	if s.deps.Mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		if err := s.deps.Mirror.InsertRecord(ctx, rec); err != nil {
			logger.WithError(err).Error("Failed to mirror log record")
		}
		cancel()
	}

	if err := s.deps.Notifier.Update(sample.Latitude, sample.Longitude, sample.BatteryPercent); err != nil {
		logger.WithError(err).Error("Failed to update notification")
	}

	s.deps.Publisher.Publish(publisher.NewEvent(sample, readings, s.deps.LegacyNullDistance))

	logger.WithFields(log.Fields{
		"latitude":  sample.Latitude,
		"longitude": sample.Longitude,
		"battery":   sample.BatteryPercent,
		"geofences": len(readings),
	}).Debug("Tick complete")
	s.deps.Metrics.ObserveTick(metrics.OutcomeLogged, time.Since(start).Seconds())
}
