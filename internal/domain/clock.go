package domain

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the venue's location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. Tests move it by reassigning At.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.At
}

func (c *FixedClock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}
