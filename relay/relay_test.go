package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edwinhayes/lio2px4/msgs/mavros_msgs"
	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
	"github.com/edwinhayes/lio2px4/ros"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []*nav_msgs.Odometry
	times  []time.Time
	delay  func(n int) time.Duration
	err    error
	closed bool
}

func (p *fakePublisher) Publish(msg ros.Message) error {
	at := time.Now()
	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return p.err
	}
	p.msgs = append(p.msgs, msg.(*nav_msgs.Odometry))
	p.times = append(p.times, at)
	var d time.Duration
	if p.delay != nil {
		d = p.delay(len(p.msgs))
	}
	p.mu.Unlock()
	time.Sleep(d)
	return nil
}

func (p *fakePublisher) GetNumSubscribers() int { return 1 }

func (p *fakePublisher) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePublisher) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// setDelay makes the nth publish block for delay(n).
func (p *fakePublisher) setDelay(delay func(n int) time.Duration) {
	p.mu.Lock()
	p.delay = delay
	p.mu.Unlock()
}

func (p *fakePublisher) publishTimes() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Time(nil), p.times...)
}

func (p *fakePublisher) published() []*nav_msgs.Odometry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*nav_msgs.Odometry(nil), p.msgs...)
}

type fakeSubscriber struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSubscriber) GetNumPublishers() int { return 1 }

func (s *fakeSubscriber) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeTransport hands callbacks back to the test, which plays the role of
// the node's spin loop.
type fakeTransport struct {
	mu        sync.Mutex
	callbacks map[string]interface{}
	subs      map[string]*fakeSubscriber
	pub       *fakePublisher
	pubTopic  string
	subErr    error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		callbacks: make(map[string]interface{}),
		subs:      make(map[string]*fakeSubscriber),
		pub:       &fakePublisher{},
	}
}

func (f *fakeTransport) NewPublisher(topic string, msgType ros.MessageType, queueSize int) (ros.Publisher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pubTopic = topic
	return f.pub, nil
}

func (f *fakeTransport) NewSubscriber(topic string, msgType ros.MessageType, callback interface{}) (ros.Subscriber, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.callbacks[topic] = callback
	f.subs[topic] = &fakeSubscriber{}
	return f.subs[topic], nil
}

func (f *fakeTransport) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.callbacks[topic]
	return ok
}

func (f *fakeTransport) subscriber(topic string) *fakeSubscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[topic]
}

func (f *fakeTransport) sendState(connected bool) {
	f.mu.Lock()
	cb := f.callbacks["mavros/state"].(func(*mavros_msgs.State))
	f.mu.Unlock()
	cb(&mavros_msgs.State{Connected: connected, Mode: "OFFBOARD"})
}

func (f *fakeTransport) sendOdometry(msg *nav_msgs.Odometry) {
	f.mu.Lock()
	cb := f.callbacks["odometry/imu"].(func(*nav_msgs.Odometry))
	f.mu.Unlock()
	cb(msg)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	relay     *Relay
	transport *fakeTransport
	clock     *fakeClock
	cancel    context.CancelFunc
	done      chan error
}

func startRelay(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		transport: newFakeTransport(),
		clock:     &fakeClock{now: time.Unix(1700000000, 0)},
		done:      make(chan error, 1),
	}
	r, err := New(cfg, h.transport, WithLogger(quietLogger()), WithClock(h.clock.Now))
	require.NoError(t, err)
	h.relay = r

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- r.Run(ctx) }()
	t.Cleanup(func() { h.stop(t) })

	require.Eventually(t, func() bool { return h.transport.subscribed("odometry/imu") },
		time.Second, time.Millisecond)
	return h
}

func (h *harness) stop(t *testing.T) {
	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
		h.done <- nil
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func (h *harness) connect(t *testing.T) {
	h.transport.sendState(true)
	require.Eventually(t, func() bool { return h.transport.subscriber("mavros/state").isClosed() },
		time.Second, time.Millisecond)
}

func eventConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeEvent
	cfg.Policy = AxisRemap
	cfg.GatePollInterval = time.Millisecond
	return cfg
}

func TestNewRejectsBadConfig(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"mode":     func(c *Config) { c.Mode = "bursty" },
		"policy":   func(c *Config) { c.Policy = "" },
		"interval": func(c *Config) { c.MinPublishInterval = 0 },
		"topic":    func(c *Config) { c.OutputTopic = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg, newFakeTransport())
			assert.Error(t, err)
		})
	}
}

func TestRunStopsBeforeConnection(t *testing.T) {
	h := startRelay(t, eventConfig())
	h.transport.sendState(false)
	h.clock.Advance(time.Second)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))

	h.stop(t)
	assert.Empty(t, h.transport.pub.published())
	assert.False(t, h.relay.Gate().Ready())
	assert.True(t, h.transport.subscriber("odometry/imu").isClosed())
	assert.True(t, h.transport.pub.closed)
}

func TestEventModeBurstPublishesOnce(t *testing.T) {
	h := startRelay(t, eventConfig())
	h.connect(t)

	h.clock.Advance(30 * time.Millisecond)
	for i := 0; i < 5; i++ {
		h.transport.sendOdometry(estimate(float64(i), 0, 0, identity))
	}
	published := h.transport.pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, 0.0, published[0].Pose.Pose.Position.Y, "first arrival is the one forwarded")
	assert.Equal(t, "base_link", published[0].ChildFrameId)

	// Exactly one interval later is still too early.
	h.clock.Advance(20 * time.Millisecond)
	h.transport.sendOdometry(estimate(5, 0, 0, identity))
	assert.Len(t, h.transport.pub.published(), 1)

	h.clock.Advance(time.Millisecond)
	h.transport.sendOdometry(estimate(6, 0, 0, identity))
	assert.Len(t, h.transport.pub.published(), 2)

	stats := h.relay.Stats()
	assert.Equal(t, uint64(7), stats.Received)
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(5), stats.Dropped)
}

func TestEventModeFirstEstimateAfterStartupIsGated(t *testing.T) {
	h := startRelay(t, eventConfig())
	h.connect(t)

	h.transport.sendOdometry(estimate(1, 2, 3, identity))
	assert.Empty(t, h.transport.pub.published())
}

func TestEventModeSkipsBeforeGate(t *testing.T) {
	h := startRelay(t, eventConfig())
	h.clock.Advance(time.Second)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))
	assert.Empty(t, h.transport.pub.published())

	h.connect(t)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))
	require.Len(t, h.transport.pub.published(), 1)
}

func TestPublishFailureDoesNotAdvanceLastPublish(t *testing.T) {
	h := startRelay(t, eventConfig())
	h.connect(t)
	start := h.relay.state.LastPublish()

	h.transport.pub.setErr(errors.New("connection reset"))
	h.clock.Advance(30 * time.Millisecond)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))
	assert.Equal(t, uint64(1), h.relay.Stats().Failed)
	assert.Equal(t, start, h.relay.state.LastPublish())

	h.transport.pub.setErr(nil)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))
	assert.Len(t, h.transport.pub.published(), 1)
}

func TestTimerModeRepublishesLatest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPublishInterval = 2 * time.Millisecond
	cfg.GatePollInterval = time.Millisecond
	h := startRelay(t, cfg)
	h.connect(t)

	// Nothing to publish until an estimate arrives.
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, h.transport.pub.published())

	first := estimate(1, 2, 3, identity)
	h.transport.sendOdometry(first)
	require.Eventually(t, func() bool { return len(h.transport.pub.published()) >= 2 },
		time.Second, time.Millisecond)
	published := h.transport.pub.published()
	assert.Equal(t, published[0], published[1])
	assert.Equal(t, "base_link_px4", published[0].ChildFrameId)
	assert.Equal(t, first.Pose, published[0].Pose)

	second := estimate(4, 5, 6, identity)
	h.transport.sendOdometry(second)
	require.Eventually(t, func() bool {
		published := h.transport.pub.published()
		return published[len(published)-1].Pose == second.Pose
	}, time.Second, time.Millisecond)
}

func TestTimerModeKeepsIntervalAfterSlowPublish(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GatePollInterval = time.Millisecond
	h := startRelay(t, cfg)
	h.transport.pub.setDelay(func(n int) time.Duration {
		if n == 2 {
			return 30 * time.Millisecond
		}
		return 0
	})
	h.connect(t)
	h.transport.sendOdometry(estimate(1, 2, 3, identity))

	require.Eventually(t, func() bool { return len(h.transport.pub.publishTimes()) >= 6 },
		time.Second, time.Millisecond)
	times := h.transport.pub.publishTimes()
	for i := 1; i < len(times); i++ {
		assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), cfg.MinPublishInterval,
			"publish %d came too soon after publish %d", i+1, i)
	}
}

func TestRunReturnsSubscribeError(t *testing.T) {
	transport := newFakeTransport()
	transport.subErr = errors.New("master unreachable")
	r, err := New(DefaultConfig(), transport, WithLogger(quietLogger()))
	require.NoError(t, err)

	err = r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, transport.subErr, errors.Cause(err))
}
