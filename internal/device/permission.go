package device

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Permission modes
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
	PermissionPrompt  = "prompt" // the next request is accepted
)

// PermissionFile holds location permission state for a host without a
// permission dialog.
type PermissionFile struct {
	mu       sync.Mutex
	mode     string
	granted  bool
	requests int
}

// NewPermissionFile creates a gate in the given mode.
func NewPermissionFile(mode string) (*PermissionFile, error) {
	switch mode {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
	default:
		return nil, fmt.Errorf("unknown permission mode %q", mode)
	}
	return &PermissionFile{mode: mode, granted: mode == PermissionGranted}, nil
}

// Granted reports whether fine, coarse and background location are granted.
func (p *PermissionFile) Granted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

// Request records a permission prompt.
func (p *PermissionFile) Request() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if p.mode == PermissionPrompt {
		p.granted = true
	}
	log.WithFields(log.Fields{
		"mode":     p.mode,
		"granted":  p.granted,
		"requests": p.requests,
	}).Info("Location permission requested")
}

// Requests returns how many prompts have been shown.
func (p *PermissionFile) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
