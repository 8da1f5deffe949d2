package relay

import (
	"sync"
	"time"

	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
)

// Stats counts what happened to incoming estimates.
type Stats struct {
	Received  uint64
	Published uint64
	// Dropped counts estimates that were never forwarded: superseded by a
	// newer one in timer mode, rate gated in event mode.
	Dropped uint64
	Failed  uint64
}

// State is the mutable part of a relay shared between subscriber callbacks
// and the publish loop.
type State struct {
	mu          sync.Mutex
	latest      *nav_msgs.Odometry
	fresh       bool
	lastPublish time.Time
	stats       Stats
}

func NewState(now time.Time) *State {
	return &State{lastPublish: now}
}

// Store replaces the latest estimate.
func (s *State) Store(estimate *nav_msgs.Odometry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Received++
	if s.fresh {
		s.stats.Dropped++
	}
	s.latest = estimate
	s.fresh = true
}

// Latest returns the most recent estimate, or false if none arrived yet.
func (s *State) Latest() (*nav_msgs.Odometry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.latest != nil
}

func (s *State) HasEstimate() bool {
	_, ok := s.Latest()
	return ok
}

// Allow reports whether strictly more than interval has passed since the
// last successful publish.
func (s *State) Allow(now time.Time, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastPublish) > interval
}

func (s *State) LastPublish() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPublish
}

func (s *State) MarkPublished(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPublish = now
	s.fresh = false
	s.stats.Published++
}

func (s *State) MarkDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh {
		s.stats.Dropped++
		s.fresh = false
	}
}

func (s *State) MarkFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Failed++
}

func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
