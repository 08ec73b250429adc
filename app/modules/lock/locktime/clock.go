package locktime

import "time"

// Clock abstracts the wall clock so lock evaluation can be pinned in tests
// and replayed deterministically for queued work.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// AnchorClock always returns the anchor. Jobs use it to evaluate against the
// instant they were scheduled for rather than the instant they ran.
type AnchorClock struct {
	anchor time.Time
}

// NewAnchorClock creates an AnchorClock. A zero t anchors at the current time.
func NewAnchorClock(t time.Time) AnchorClock {
	if t.IsZero() {
		return AnchorClock{anchor: time.Now().UTC()}
	}
	return AnchorClock{anchor: t.UTC()}
}

func (c AnchorClock) Now() time.Time { return c.anchor }

// FakeClock returns NowFn() when set and the real time otherwise.
type FakeClock struct {
	NowFn func() time.Time
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now().UTC()
}

// FixedClock is a FakeClock pinned at t.
func FixedClock(t time.Time) *FakeClock {
	return &FakeClock{NowFn: func() time.Time { return t }}
}
