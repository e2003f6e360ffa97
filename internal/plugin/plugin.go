// Package plugin implements the startService/stopService boundary the
// hosting application calls.
package plugin

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/geofence"
	"github.com/ukydev/device-monitor/internal/models"
)

// Acknowledgements returned on success.
const (
	AckStarted = "Location service started"
	AckStopped = "Location service stopped"
)

// PermissionGate checks and requests location permissions on the host.
type PermissionGate interface {
	Granted() bool
	Request()
}

// ForegroundRunner keeps the sampling loop alive in the background.
type ForegroundRunner interface {
	Start(cfg models.SamplingConfig) error
	Stop() error
}

// StartArgs are the startService arguments. Nil means missing.
type StartArgs struct {
	Interval         *int64   `json:"interval"`
	DistanceAccuracy *float64 `json:"distanceAccuracy"`
	Geofences        []string `json:"geofences"`
	UserID           *string  `json:"userId"`
}

// Plugin validates boundary calls and drives the foreground runner.
type Plugin struct {
	gate   PermissionGate
	runner ForegroundRunner
}

// New creates a Plugin.
func New(gate PermissionGate, runner ForegroundRunner) *Plugin {
	return &Plugin{gate: gate, runner: runner}
}

// StartService starts, or reconfigures, the sampling loop.
func (p *Plugin) StartService(args StartArgs) (string, error) {
	if !p.gate.Granted() {
		p.gate.Request()
		return "", ErrPermissionDenied
	}

	cfg, err := args.config()
	if err != nil {
		return "", err
	}

	if err := p.runner.Start(cfg); err != nil {
		return "", &Error{Code: CodeServiceFailure, Message: err.Error()}
	}

	log.WithFields(log.Fields{
		"interval":  cfg.Interval,
		"accuracy":  cfg.MinDisplacementMeters,
		"requested": len(args.Geofences),
		"geofences": len(cfg.Geofences),
		"user_id":   cfg.UserID,
	}).Info("Location service started")
	return AckStarted, nil
}

// StopService stops the sampling loop. Stopping a stopped loop succeeds.
func (p *Plugin) StopService() (string, error) {
	if err := p.runner.Stop(); err != nil {
		return "", &Error{Code: CodeServiceFailure, Message: err.Error()}
	}
	log.Info("Location service stopped")
	return AckStopped, nil
}

func (a StartArgs) config() (models.SamplingConfig, error) {
	if a.Interval == nil || a.DistanceAccuracy == nil || a.Geofences == nil || a.UserID == nil {
		return models.SamplingConfig{}, ErrInvalidArgument
	}
	if *a.Interval <= 0 {
		return models.SamplingConfig{}, &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("interval must be positive, got %d", *a.Interval)}
	}
	if *a.DistanceAccuracy < 0 {
		return models.SamplingConfig{}, &Error{Code: CodeInvalidArgument, Message: "distanceAccuracy must not be negative"}
	}
	return models.SamplingConfig{
		Interval:              time.Duration(*a.Interval) * time.Millisecond,
		MinDisplacementMeters: *a.DistanceAccuracy,
		UserID:                *a.UserID,
		Geofences:             geofence.ParseAll(a.Geofences),
	}, nil
}
