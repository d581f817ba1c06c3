package liveness

import (
	"context"
	"sync"
	"time"
)

// Liveable is implemented by services that can report their own health.
type Liveable interface {
	IsAlive(ctx context.Context) bool
}

type Prober interface {
	IsAlive() bool
	Watch(service Liveable)
}

// Probe aggregates the health of watched services; the probe is alive only
// while every watched service answers within the configured timeout.
type Probe struct {
	timeout  time.Duration
	mu       sync.RWMutex
	services []Liveable
}

func NewProbe(timeout time.Duration) *Probe {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Probe{timeout: timeout}
}

func (p *Probe) Watch(service Liveable) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.services = append(p.services, service)
}

func (p *Probe) IsAlive() bool {
	p.mu.RLock()
	services := append([]Liveable(nil), p.services...)
	p.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	for _, s := range services {
		if !s.IsAlive(ctx) {
			return false
		}
	}
	return true
}
