package model

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DayBoundary selects how "today" is derived from the wall clock.
type DayBoundary string

const (
	DayBoundaryLocal DayBoundary = "local"
	DayBoundaryUTC   DayBoundary = "utc"
)

func (b DayBoundary) IsValid() bool {
	switch b {
	case DayBoundaryLocal, DayBoundaryUTC:
		return true
	default:
		return false
	}
}

func ParseDayBoundary(input string) (DayBoundary, error) {
	b := DayBoundary(strings.ToLower(strings.TrimSpace(input)))
	if !b.IsValid() {
		return "", fmt.Errorf("model: invalid day boundary %q", input)
	}
	return b, nil
}

// Clock is shared by every component that needs "today" so that the draft
// boundary and the record key can never disagree within one process.
type Clock interface {
	Now() time.Time
	Today() Date
}

type SystemClock struct {
	Boundary DayBoundary
	Location *time.Location
}

func NewSystemClock(boundary DayBoundary, loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return SystemClock{Boundary: boundary, Location: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now()
}

func (c SystemClock) Today() Date {
	return todayIn(c.Now(), c.Boundary, c.Location)
}

func todayIn(now time.Time, boundary DayBoundary, loc *time.Location) Date {
	if boundary == DayBoundaryUTC {
		return DateOf(now.UTC())
	}
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now.In(loc))
}

// FixedClock is a settable clock for tests and replays.
type FixedClock struct {
	mu       sync.Mutex
	now      time.Time
	Boundary DayBoundary
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now, Boundary: DayBoundaryLocal}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FixedClock) Today() Date {
	now := c.Now()
	return todayIn(now, c.Boundary, now.Location())
}

func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *FixedClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}
