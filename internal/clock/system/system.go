// Package system provides the wall clock used by the query services.
package system

import "time"

// Clock reports the current instant in a fixed location.
type Clock struct {
	loc *time.Location
}

// New creates a Clock in loc; a nil loc means UTC.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc}
}

// Now returns the current time in the clock's location.
func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the clock's location.
func (c *Clock) Location() *time.Location {
	return c.loc
}
