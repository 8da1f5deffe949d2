package relay

import (
	"context"
	"sync"
	"time"

	"github.com/edwinhayes/lio2px4/ros"
)

// Gate holds the relay back until the flight controller link is up. Once a
// connected status has been seen it stays open for good.
type Gate struct {
	mu           sync.Mutex
	connected    bool
	released     bool
	updates      uint64
	notify       chan struct{}
	pollInterval time.Duration
	logger       ros.Logger
}

// NewGate returns a closed gate. pollInterval bounds how long Wait sleeps
// without an update before it re-checks and logs that it is still waiting.
func NewGate(pollInterval time.Duration, logger ros.Logger) *Gate {
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &Gate{
		notify:       make(chan struct{}),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Update records the latest connectivity status and wakes waiters.
func (g *Gate) Update(connected bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = connected
	g.updates++
	if connected {
		g.released = true
	}
	close(g.notify)
	g.notify = make(chan struct{})
}

// Ready reports whether the gate has released.
func (g *Gate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// Connected returns the most recent status, which may be false after the
// gate released.
func (g *Gate) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

// Wait blocks until the gate releases or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	timer := time.NewTimer(g.pollInterval)
	defer timer.Stop()
	for {
		g.mu.Lock()
		released, notify, updates := g.released, g.notify, g.updates
		g.mu.Unlock()
		if released {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrShutdown
		case <-notify:
		case <-timer.C:
			g.logger.Debugf("Waiting for flight controller connection (%d status updates so far)", updates)
		}
		timer.Reset(g.pollInterval)
	}
}
