// Package clock lets services and the export pipeline take time as a
// dependency, so lookups and PDF creation dates are reproducible in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// NewSystem returns the wall clock in UTC.
func NewSystem() Clock {
	return Func(func() time.Time { return time.Now().UTC() })
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	t = t.UTC()
	return Func(func() time.Time { return t })
}
