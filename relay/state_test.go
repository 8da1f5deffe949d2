package relay

import (
	"testing"
	"time"

	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
	"github.com/stretchr/testify/assert"
)

func TestStatePresence(t *testing.T) {
	s := NewState(time.Unix(0, 0))
	assert.False(t, s.HasEstimate())
	latest, ok := s.Latest()
	assert.False(t, ok)
	assert.Nil(t, latest)

	first := &nav_msgs.Odometry{ChildFrameId: "a"}
	second := &nav_msgs.Odometry{ChildFrameId: "b"}
	s.Store(first)
	s.Store(second)
	latest, ok = s.Latest()
	assert.True(t, ok)
	assert.Same(t, second, latest)
	assert.Equal(t, Stats{Received: 2, Dropped: 1}, s.Stats())
}

func TestStateAllowIsStrict(t *testing.T) {
	start := time.Unix(1000, 0)
	s := NewState(start)
	interval := 20 * time.Millisecond

	assert.False(t, s.Allow(start, interval))
	assert.False(t, s.Allow(start.Add(interval), interval))
	assert.True(t, s.Allow(start.Add(interval+time.Nanosecond), interval))

	s.MarkPublished(start.Add(time.Second))
	assert.Equal(t, start.Add(time.Second), s.LastPublish())
	assert.False(t, s.Allow(start.Add(time.Second+interval), interval))
}

func TestStateCounters(t *testing.T) {
	s := NewState(time.Unix(0, 0))
	s.Store(&nav_msgs.Odometry{})
	s.MarkPublished(time.Unix(1, 0))
	s.Store(&nav_msgs.Odometry{})
	s.MarkDropped()
	s.MarkDropped()
	s.MarkFailed()

	assert.Equal(t, Stats{Received: 2, Published: 1, Dropped: 1, Failed: 1}, s.Stats())
}
