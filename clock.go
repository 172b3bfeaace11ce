package thegrid

import (
	"time"
)

// Timer is a single pending wake up of the frame loop
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Clock creates the timers used by the frame loop, tests substitute their
// own to drive the loop one fire at a time
type Clock interface {
	NewTimer(d time.Duration) Timer
}

type realClock struct{}

type realTimer struct {
	timer *time.Timer
}

// RealClock returns a clock backed by the time package
func RealClock() Clock {
	return realClock{}
}

func (realClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}
