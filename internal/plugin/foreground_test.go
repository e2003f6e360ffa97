package plugin

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/device-monitor/internal/models"
)

type fakeLoop struct {
	starts []models.SamplingConfig
	stops  int
	err    error
}

func (l *fakeLoop) Start(cfg models.SamplingConfig) error {
	l.starts = append(l.starts, cfg)
	return l.err
}

func (l *fakeLoop) Stop() { l.stops++ }

type fakeStatus struct {
	channels int
	initial  int
	err      error
}

func (s *fakeStatus) EnsureChannel() error {
	s.channels++
	return s.err
}

func (s *fakeStatus) ShowInitial() error {
	s.initial++
	return nil
}

func TestForegroundService_SetsUpNotificationOnce(t *testing.T) {
	loop := &fakeLoop{}
	status := &fakeStatus{}
	f := NewForegroundService(loop, status)

	require.NoError(t, f.Start(models.SamplingConfig{Interval: time.Second}))
	require.NoError(t, f.Start(models.SamplingConfig{Interval: 2 * time.Second}))
	require.NoError(t, f.Stop())

	assert.Equal(t, 1, status.channels)
	assert.Equal(t, 1, status.initial)
	assert.Len(t, loop.starts, 2)
	assert.Equal(t, 1, loop.stops)
}

func TestForegroundService_ChannelFailureStillStarts(t *testing.T) {
	loop := &fakeLoop{}
	f := NewForegroundService(loop, &fakeStatus{err: errors.New("no manager")})

	require.NoError(t, f.Start(models.SamplingConfig{Interval: time.Second}))
	assert.Len(t, loop.starts, 1)
}

func TestForegroundService_LoopError(t *testing.T) {
	f := NewForegroundService(&fakeLoop{err: errors.New("bad interval")}, &fakeStatus{})
	assert.Error(t, f.Start(models.SamplingConfig{}))
}
