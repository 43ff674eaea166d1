// Package retention decides which snapshot timestamps survive a
// grandfather-father-son policy. Everything here is a pure function of its
// arguments: "now" and the calendar's time zone are always passed in.
package retention

import (
	"fmt"
	"time"
)

// Granularity is the unit of a calendar bucket.
type Granularity int

const (
	Hour Granularity = iota
	Day
	Week
	Month
	Year
)

var granularityUnits = [...]byte{'h', 'd', 'w', 'm', 'y'}
var granularityNames = [...]string{"hourly", "daily", "weekly", "monthly", "yearly"}

// Granularities lists every granularity in ascending order.
func Granularities() []Granularity {
	return []Granularity{Hour, Day, Week, Month, Year}
}

func (g Granularity) valid() bool {
	return g >= Hour && g <= Year
}

// Unit returns the single-letter suffix used in the text syntax.
func (g Granularity) Unit() byte {
	if !g.valid() {
		return '?'
	}
	return granularityUnits[g]
}

func (g Granularity) String() string {
	if !g.valid() {
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
	return granularityNames[g]
}

// Bucket identifies one calendar-aligned period of a granularity.
// Two timestamps share a bucket iff they fall in the same period.
type Bucket struct {
	Granularity Granularity
	Year        int
	Index       int
}

// Calendar carries the time zone in which periods are aligned.
type Calendar struct {
	loc *time.Location
}

// NewCalendar returns a calendar for loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) Calendar {
	return Calendar{loc: loc}
}

// Location returns the calendar's time zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Bucket returns the period of g that contains t.
func (c Calendar) Bucket(g Granularity, t time.Time) Bucket {
	t = t.In(c.Location())
	switch g {
	case Hour:
		return Bucket{Granularity: g, Year: t.Year(), Index: (t.YearDay()-1)*24 + t.Hour()}
	case Day:
		return Bucket{Granularity: g, Year: t.Year(), Index: t.YearDay()}
	case Week:
		y, w := t.ISOWeek()
		return Bucket{Granularity: g, Year: y, Index: w}
	case Month:
		return Bucket{Granularity: g, Year: t.Year(), Index: int(t.Month())}
	case Year:
		return Bucket{Granularity: g, Year: t.Year()}
	}
	panic(fmt.Sprintf("retention: unknown granularity %d", int(g)))
}

// WindowStart returns now minus count units of g, using calendar lengths
// for days, months and years.
func (c Calendar) WindowStart(g Granularity, count int, now time.Time) time.Time {
	now = now.In(c.Location())
	switch g {
	case Hour:
		return hoursBefore(now, count)
	case Day:
		return now.AddDate(0, 0, -count)
	case Week:
		return now.AddDate(0, 0, -7*count)
	case Month:
		return addMonths(now, -count)
	case Year:
		return addMonths(now, -12*count)
	}
	panic(fmt.Sprintf("retention: unknown granularity %d", int(g)))
}

// hoursBefore subtracts n elapsed hours in Unix seconds, which does not
// overflow where a time.Duration of n hours would.
func hoursBefore(t time.Time, n int) time.Time {
	return time.Unix(t.Unix()-int64(n)*3600, int64(t.Nanosecond())).In(t.Location())
}

// addMonths shifts t by n months, clamping the day to the end of the
// target month (Mar 31 - 1 month = Feb 28/29, not Mar 3).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
