// Package relay forwards LIO-SAM odometry to PX4 through MAVROS. It waits
// for the flight controller link, converts each estimate to the frame
// convention PX4 expects and caps the output rate.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/edwinhayes/lio2px4/msgs/mavros_msgs"
	"github.com/edwinhayes/lio2px4/msgs/nav_msgs"
	"github.com/edwinhayes/lio2px4/ros"
	"github.com/pkg/errors"
)

// Mode selects the rate gate.
type Mode string

const (
	// ModeTimer publishes the latest estimate once per interval and
	// repeats it if nothing new arrived.
	ModeTimer Mode = "timer"
	// ModeEvent publishes on arrival unless the previous publish is not
	// older than the interval, in which case the estimate is dropped.
	ModeEvent Mode = "event"
)

type Config struct {
	Policy             Policy
	ChildFrameID       string
	Orientation        OrientationMode
	Mode               Mode
	MinPublishInterval time.Duration
	GatePollInterval   time.Duration
	StateTopic         string
	InputTopic         string
	OutputTopic        string
	QueueSize          int
}

func DefaultConfig() Config {
	return Config{
		Policy:             PassthroughRelabel,
		Orientation:        OrientationComponent,
		Mode:               ModeTimer,
		MinPublishInterval: 20 * time.Millisecond,
		GatePollInterval:   50 * time.Millisecond,
		StateTopic:         "mavros/state",
		InputTopic:         "odometry/imu",
		OutputTopic:        "mavros/odometry/out",
		QueueSize:          10,
	}
}

// Transport is the part of a ROS node the relay needs. ros.Node satisfies it.
type Transport interface {
	NewPublisher(topic string, msgType ros.MessageType, queueSize int) (ros.Publisher, error)
	NewSubscriber(topic string, msgType ros.MessageType, callback interface{}) (ros.Subscriber, error)
}

type Option func(*Relay)

func WithLogger(logger ros.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

// WithClock replaces time.Now for the event mode rate gate and the
// recorded publish times. Timer mode paces on the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

type Relay struct {
	cfg       Config
	transport Transport
	converter *Converter
	gate      *Gate
	state     *State
	logger    ros.Logger
	now       func() time.Time

	publishMu sync.Mutex
	pub       ros.Publisher
	receiving sync.Once
}

func New(cfg Config, transport Transport, opts ...Option) (*Relay, error) {
	converter, err := NewConverter(cfg.Policy, cfg.ChildFrameID, cfg.Orientation)
	if err != nil {
		return nil, err
	}
	if cfg.Mode != ModeTimer && cfg.Mode != ModeEvent {
		return nil, errors.Errorf("unknown rate gate mode %q", cfg.Mode)
	}
	if cfg.MinPublishInterval <= 0 {
		return nil, errors.Errorf("min publish interval must be positive, got %s", cfg.MinPublishInterval)
	}
	if cfg.StateTopic == "" || cfg.InputTopic == "" || cfg.OutputTopic == "" {
		return nil, errors.New("state, input and output topics are required")
	}

	r := &Relay{
		cfg:       cfg,
		transport: transport,
		converter: converter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = ros.NewDefaultLogger()
	}
	r.logger = r.logger.WithModule("relay")
	r.gate = NewGate(cfg.GatePollInterval, r.logger)
	r.state = NewState(r.now())
	return r, nil
}

func (r *Relay) Gate() *Gate {
	return r.gate
}

func (r *Relay) Stats() Stats {
	return r.state.Stats()
}

// Run subscribes, waits for the flight controller and forwards estimates
// until ctx is done. Cancellation is not an error.
func (r *Relay) Run(ctx context.Context) error {
	logger := r.logger
	defer r.logStats()

	stateSub, err := r.transport.NewSubscriber(r.cfg.StateTopic, mavros_msgs.MsgState, r.onState)
	if err != nil {
		return errors.Wrapf(err, "subscribe to %s", r.cfg.StateTopic)
	}
	defer stateSub.Shutdown()

	pub, err := r.transport.NewPublisher(r.cfg.OutputTopic, nav_msgs.MsgOdometry, r.cfg.QueueSize)
	if err != nil {
		return errors.Wrapf(err, "advertise %s", r.cfg.OutputTopic)
	}
	defer pub.Shutdown()
	r.publishMu.Lock()
	r.pub = pub
	r.publishMu.Unlock()

	odomSub, err := r.transport.NewSubscriber(r.cfg.InputTopic, nav_msgs.MsgOdometry, r.onOdometry)
	if err != nil {
		return errors.Wrapf(err, "subscribe to %s", r.cfg.InputTopic)
	}
	defer odomSub.Shutdown()

	logger.Debugf("Waiting for flight controller on %s", r.cfg.StateTopic)
	if err := r.gate.Wait(ctx); err != nil {
		logger.Debug("Shut down before flight controller connected")
		return nil
	}
	logger.Info("Flight controller connected")
	stateSub.Shutdown()

	if r.cfg.Mode == ModeEvent {
		<-ctx.Done()
		return nil
	}
	r.runTimer(ctx)
	return nil
}

// runTimer publishes once per tick. A publish that overruns its tick pushes
// the next one back so that two publishes are never closer than the
// interval, measured from the end of the previous one.
func (r *Relay) runTimer(ctx context.Context) {
	interval := r.cfg.MinPublishInterval
	rate := ros.CycleTime(ros.FromDuration(interval))
	var last time.Time
	for {
		if !last.IsZero() {
			if err := sleepUntil(ctx, last.Add(interval)); err != nil {
				return
			}
		}
		if err := r.forward(false); err == nil {
			last = time.Now()
		}
		if err := rate.Sleep(ctx); err != nil {
			return
		}
	}
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Relay) onState(msg *mavros_msgs.State) {
	r.gate.Update(msg.Connected)
}

func (r *Relay) onOdometry(msg *nav_msgs.Odometry) {
	r.state.Store(msg)
	if r.cfg.Mode == ModeEvent {
		r.forward(true)
	}
}

// forward publishes the latest estimate. With rateGated set the estimate is
// dropped unless the interval has passed since the last successful publish.
func (r *Relay) forward(rateGated bool) error {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	if !r.gate.Ready() || r.pub == nil {
		return ErrNotReady
	}
	estimate, ok := r.state.Latest()
	if !ok {
		return ErrNotReady
	}
	r.receiving.Do(func() { r.logger.Info("Receiving LIO data") })

	now := r.now()
	if rateGated && !r.state.Allow(now, r.cfg.MinPublishInterval) {
		r.state.MarkDropped()
		return nil
	}
	if err := r.pub.Publish(r.converter.Convert(estimate)); err != nil {
		r.state.MarkFailed()
		r.logger.Warnf("Publish to %s failed: %s", r.cfg.OutputTopic, err)
		return err
	}
	r.state.MarkPublished(now)
	return nil
}

func (r *Relay) logStats() {
	s := r.state.Stats()
	r.logger.Infof("Relay stopped: %s received, %s published, %s dropped, %s failed",
		humanize.Comma(int64(s.Received)),
		humanize.Comma(int64(s.Published)),
		humanize.Comma(int64(s.Dropped)),
		humanize.Comma(int64(s.Failed)))
}
