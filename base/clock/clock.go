// Package clock abstracts the call-time timestamp source. The engine
// never caches timestamps across calls and never trusts caller-supplied
// time beyond clamping, so every time-gated precondition reads from a
// Clock resolved at call time.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func Real() Clock { return realClock{} }

// Fake is a manually advanced clock for tests.
type Fake struct {
	now time.Time
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time { return f.now }

func (f *Fake) Set(t time.Time) { f.now = t }

func (f *Fake) Advance(d time.Duration) { f.now = f.now.Add(d) }
