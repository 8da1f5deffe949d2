package relay

import "github.com/pkg/errors"

var (
	// ErrShutdown is returned by Gate.Wait when its context ends before the
	// flight controller reports a connection.
	ErrShutdown = errors.New("relay: shut down before flight controller connected")

	// ErrNotReady marks a publish step skipped because the gate has not
	// released or no estimate has arrived yet. It is never returned by Run.
	ErrNotReady = errors.New("relay: not ready")
)
