// Package device provides host adapters for running the monitor outside a
// phone: a simulated location provider, a simulated battery and an
// in-memory permission gate.
package device

import (
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/models"
)

// Cities for realistic starting points
var cities = []models.Fix{
	{Latitude: 51.5074, Longitude: -0.1278},   // London
	{Latitude: 40.7128, Longitude: -74.0060},  // New York
	{Latitude: 40.4168, Longitude: -3.7038},   // Madrid
	{Latitude: 35.1856, Longitude: 33.3823},   // Nicosia
	{Latitude: 48.8566, Longitude: 2.3522},    // Paris
	{Latitude: 41.0082, Longitude: 28.9784},   // Istanbul
	{Latitude: 51.4816, Longitude: -3.1791},   // Cardiff
	{Latitude: 37.7749, Longitude: -122.4194}, // San Francisco
	{Latitude: 52.5200, Longitude: 13.4050},   // Berlin
	{Latitude: 35.6762, Longitude: 139.6503},  // Tokyo
}

// minUpdateInterval mirrors the fastest interval a fused provider delivers.
const minUpdateInterval = 500 * time.Millisecond

func jitter(lat, lon, meters float64) (float64, float64) {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return lat + dLat, lon + dLon
}

// SimulatedLocation emits random-walk fixes on its own ticker.
type SimulatedLocation struct {
	JitterMeters float64

	mu       sync.Mutex
	lat, lon float64
	stop     chan struct{}
	done     chan struct{}
}

// NewSimulatedLocation starts the walk at the given point, or near a random
// city when both coordinates are zero.
func NewSimulatedLocation(lat, lon, jitterMeters float64) *SimulatedLocation {
	if lat == 0 && lon == 0 {
		c := cities[rand.Intn(len(cities))]
		lat, lon = jitter(c.Latitude, c.Longitude, 500)
	}
	return &SimulatedLocation{JitterMeters: jitterMeters, lat: lat, lon: lon}
}

// RequestUpdates replaces any running update stream with a new one. The
// current position is delivered before it returns, like a last-known fix.
func (s *SimulatedLocation) RequestUpdates(interval time.Duration, onFix func(models.Fix)) error {
	s.RemoveUpdates()
	if interval < minUpdateInterval {
		interval = minUpdateInterval
	}

	s.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	s.mu.Unlock()

	onFix(s.next())
	go func() {
		defer close(done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				onFix(s.next())
			}
		}
	}()

	log.WithField("interval", interval).Debug("Location updates requested")
	return nil
}

// RemoveUpdates stops the update stream and waits for it to exit.
func (s *SimulatedLocation) RemoveUpdates() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	log.Debug("Location updates stopped")
	return nil
}

func (s *SimulatedLocation) next() models.Fix {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lat, s.lon = jitter(s.lat, s.lon, s.JitterMeters)
	return models.Fix{Latitude: s.lat, Longitude: s.lon, ReceivedAt: time.Now()}
}
