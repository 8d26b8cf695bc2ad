// Package clock abstracts time so that scheduled punishments can be tested
// without sleeping.
package clock

import "time"

// Timer is a handle to a pending AfterFunc call
type Timer interface {
	Stop() bool
}

// Clock provides the current instant and deferred execution
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
