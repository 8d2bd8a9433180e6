// Package clock provides the production implementation of the lane
// package's Clock collaborator.
package clock

import "time"

// Real is the production Clock, backed directly by the wall clock.
type Real struct{}

// New returns a Real clock.
func New() Real { return Real{} }

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }
