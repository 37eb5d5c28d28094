package usecase

import "time"

const defaultReplyDelay = 800 * time.Millisecond

// Task is a deferred call that may still be cancelled.
type Task interface {
	// Stop prevents the call from running. It reports false if the call
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d. Implementations must not call f
// synchronously from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

type timerScheduler struct{}

// NewTimerScheduler returns a Scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler { return timerScheduler{} }

func (timerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// DelayPolicy is the simulated typing delay before a bot reply.
// When Max <= Min the delay is fixed at Min.
type DelayPolicy struct {
	Min time.Duration
	Max time.Duration
}

// FixedDelay returns a policy that always waits d.
func FixedDelay(d time.Duration) *DelayPolicy {
	return &DelayPolicy{Min: d, Max: d}
}

// Next picks the delay for one turn, at millisecond granularity.
func (p DelayPolicy) Next(choose Chooser) time.Duration {
	if p.Min < 0 {
		p.Min = 0
	}
	if p.Max <= p.Min {
		return p.Min
	}
	span := int((p.Max - p.Min) / time.Millisecond)
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(choose(span+1))*time.Millisecond
}
