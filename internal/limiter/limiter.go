// Package limiter caps how often a loop may run.
//
// [Spin] busy-waits and is the reference limiter: at the default cap of one
// million iterations per second the interval is far below what the scheduler
// can sleep for. [Sleep] keeps the same contract without burning a core and
// suits low rates or cooperative environments.
package limiter

import (
	"fmt"
	"time"
)

// Checker blocks until the caller may run its next iteration.
type Checker interface {
	Check()
}

const (
	KindSpin  = "spin"
	KindSleep = "sleep"
	KindNone  = "none"
)

// New returns the limiter named by kind. A non-positive maxRate or kind
// "none" yields a Disabled limiter.
func New(kind string, maxRate float64) (Checker, error) {
	if kind == KindNone || maxRate <= 0 {
		return Disabled{}, nil
	}
	switch kind {
	case KindSpin, "":
		return NewSpin(maxRate), nil
	case KindSleep:
		return NewSleep(maxRate), nil
	}
	return nil, fmt.Errorf("unknown limiter: %s (available: spin, sleep, none)", kind)
}

// Interval converts a maximum rate in iterations per second to the minimum
// time between iterations.
func Interval(maxRate float64) time.Duration {
	return time.Duration(float64(time.Second) / maxRate)
}

// Spin spins until at least Min has elapsed since the previous Check.
// A nil *Spin never blocks.
type Spin struct {
	last time.Time
	min  time.Duration
}

func NewSpin(maxRate float64) *Spin {
	return &Spin{last: time.Now(), min: Interval(maxRate)}
}

func (l *Spin) Check() {
	if l == nil {
		return
	}
	for time.Since(l.last) < l.min {
	}
	l.last = time.Now()
}

func (l *Spin) Min() time.Duration { return l.min }

// Sleep has the same contract as Spin but yields the processor while waiting.
type Sleep struct {
	last time.Time
	min  time.Duration
}

func NewSleep(maxRate float64) *Sleep {
	return &Sleep{last: time.Now(), min: Interval(maxRate)}
}

func (l *Sleep) Check() {
	if l == nil {
		return
	}
	// time.Sleep may return early on some platforms
	for {
		remaining := l.min - time.Since(l.last)
		if remaining <= 0 {
			break
		}
		time.Sleep(remaining)
	}
	l.last = time.Now()
}

func (l *Sleep) Min() time.Duration { return l.min }

// Disabled never blocks.
type Disabled struct{}

func (Disabled) Check() {}
