// Package ros is a ROS1 client: it registers with the master, advertises and
// subscribes to topics over TCPROS and exposes the parameter server.
package ros

import (
	"context"
	"time"
)

type Node interface {
	// NewPublisher advertises topic. queueSize bounds the number of
	// messages buffered per connected subscriber; the oldest is dropped
	// when a slow subscriber falls behind.
	NewPublisher(topic string, msgType MessageType, queueSize int) (Publisher, error)
	// callback should be a function which takes 0, 1, or 2 arguments.
	// If it takes 0 arguments, it will simply be called without the
	// message.  1-argument functions are the normal case, and the
	// argument should be of the generated message type.  If the
	// function takes 2 arguments, the first argument should be of the
	// generated message type and the second argument should be of
	// type MessageEvent.
	NewSubscriber(topic string, msgType MessageType, callback interface{}) (Subscriber, error)

	OK() bool
	// Done is closed once the node stops being OK.
	Done() <-chan struct{}
	SpinOnce()
	// Spin runs subscriber callbacks until ctx is done or the node is shut down.
	Spin(ctx context.Context)
	Shutdown()

	GetParam(name string) (interface{}, error)
	SetParam(name string, value interface{}) error
	HasParam(name string) (bool, error)
	SearchParam(name string) (string, error)
	DeleteParam(name string) error

	Name() string
	Logger() Logger

	NonRosArgs() []string
}

// NewNode creates a node, registers its slave API and applies the ROS
// arguments found in args (remappings, _params and __specials).
func NewNode(name string, args []string, opts ...NodeOption) (Node, error) {
	return newDefaultNode(name, args, opts...)
}

type Publisher interface {
	// Publish serializes msg and queues it for every connected subscriber.
	Publish(msg Message) error
	GetNumSubscribers() int
	Shutdown()
}

type Subscriber interface {
	GetNumPublishers() int
	Shutdown()
}

// MessageEvent is the optional second argument to a Subscriber callback.
type MessageEvent struct {
	PublisherName    string
	ReceiptTime      time.Time
	ConnectionHeader map[string]string
}
