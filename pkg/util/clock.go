package util

import "time"

// Clock is the time source for the simulation loop and the trader. Tests
// drive a *clock.Mock from github.com/benbjohnson/clock, which satisfies it.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }
