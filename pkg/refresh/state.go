package refresh

import (
	"sync"
	"time"

	"github.com/glasswing/content-cache/pkg/model"
)

// Status is the outcome of one refresh attempt. Failures are swallowed at
// the orchestrator boundary, so callers inspect the Result instead of an
// error chain.
type Status string

const (
	StatusRefreshed Status = "refreshed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

type Result struct {
	Entity model.Entity
	Status Status
	Err    error
}

// State owns the per-entity refresh bookkeeping: the last successful refresh
// timestamp and whether a refresh is currently running. Decisions over it
// (cooldown checks) are pure functions of the timestamps passed in, keeping
// the I/O out of the decision path.
type State struct {
	mu      sync.Mutex
	last    map[model.Entity]time.Time
	running map[model.Entity]bool
}

func NewState() *State {
	return &State{
		last:    make(map[model.Entity]time.Time, len(model.Entities())),
		running: make(map[model.Entity]bool, len(model.Entities())),
	}
}

// InCooldown reports whether the minimum inter-refresh spacing for the
// entity has not yet elapsed. This guard is fixed and independent of the
// scheduling tier's interval.
func (s *State) InCooldown(e model.Entity, now time.Time, minInterval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.last[e]
	return ok && now.Sub(last) < minInterval
}

// TryStart transitions the entity Idle -> Running; it fails when a refresh
// for the same entity is already in flight.
func (s *State) TryStart(e model.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[e] {
		return false
	}
	s.running[e] = true
	return true
}

// Finish transitions Running -> Cooldown, recording the refresh time on
// success. A failed attempt leaves the previous timestamp so the next tick
// retries as soon as it is due.
func (s *State) Finish(e model.Entity, now time.Time, refreshed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[e] = false
	if refreshed {
		s.last[e] = now
	}
}

// LastRefreshAt returns the zero time when the entity was never refreshed.
func (s *State) LastRefreshAt(e model.Entity) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[e]
}

// ResetAll zeroes every per-entity cooldown, used by the emergency path.
func (s *State) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for e := range s.last {
		delete(s.last, e)
	}
}
