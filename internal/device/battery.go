package device

import (
	"math/rand"
	"sync"
)

// SimulatedBattery drains a little on every read and recharges when low.
type SimulatedBattery struct {
	mu  sync.Mutex
	pct float64
}

// NewSimulatedBattery starts somewhere between half and fully charged.
func NewSimulatedBattery() *SimulatedBattery {
	return &SimulatedBattery{pct: 50 + rand.Float64()*50}
}

// BatteryPercent returns the current charge as a whole percentage.
func (b *SimulatedBattery) BatteryPercent() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pct -= rand.Float64() * 0.8
	if b.pct < 5 {
		b.pct = 100
	}
	return int(b.pct), nil
}
