// Package clock is the single source of "today" for streaks, daily challenge
// selection and daily records.
package clock

import (
	"strings"
	"sync"
	"time"
)

// DayLayout is the calendar-day key format used everywhere state is dated.
const DayLayout = "2006-01-02"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in Loc (UTC when nil).
type System struct {
	Loc *time.Location
}

func (s System) Now() time.Time {
	if s.Loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.Loc)
}

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Today returns the day key for c's current instant.
func Today(c Clock) string {
	return c.Now().Format(DayLayout)
}

// DayOfMonth returns 1..31 for c's current instant.
func DayOfMonth(c Clock) int {
	return c.Now().Day()
}

// NormalizeDay drops any time-of-day suffix from an ISO timestamp.
func NormalizeDay(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
