package ros

import (
	"context"
	"time"
)

// Rate paces a loop at a fixed frequency. Each Sleep ends one cycle after
// the previous one ended, so time spent working inside the loop is absorbed.
// Lost time is never made up.
type Rate struct {
	actualCycleTime   Duration
	expectedCycleTime Duration
	start             Time
}

func NewRate(frequency float64) Rate {
	var expectedCycleTime Duration
	expectedCycleTime.FromSec(1.0 / frequency)
	return CycleTime(expectedCycleTime)
}

func CycleTime(d Duration) Rate {
	return Rate{expectedCycleTime: d, start: Now()}
}

// CycleTime returns the actual duration of the last cycle.
func (r *Rate) CycleTime() Duration {
	return r.actualCycleTime
}

func (r *Rate) ExpectedCycleTime() Duration {
	return r.expectedCycleTime
}

func (r *Rate) Reset() {
	r.actualCycleTime = NewDuration(0, 0)
	r.start = Now()
}

// Sleep blocks until the end of the current cycle or until ctx is done, in
// which case ctx.Err() is returned. A late cycle ends now and the next one
// starts from there, so consecutive cycle ends are never closer than the
// expected cycle time.
func (r *Rate) Sleep(ctx context.Context) error {
	expectedEnd := r.start.Add(r.expectedCycleTime)
	now := Now()
	var remaining time.Duration
	if expectedEnd.Cmp(now) > 0 {
		remaining = expectedEnd.Diff(now).ToDuration()
	}

	if remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	now = Now()
	r.actualCycleTime = now.Diff(r.start)
	r.start = expectedEnd
	if now.Cmp(expectedEnd) > 0 {
		r.start = now
	}
	return nil
}
