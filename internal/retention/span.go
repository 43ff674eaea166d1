package retention

import (
	"strconv"
	"strings"
	"time"
)

// Span is a calendar duration: months and years have their real lengths
// relative to the instant they are subtracted from.
type Span struct {
	Hours  int
	Days   int
	Weeks  int
	Months int
	Years  int
}

// IsZero reports whether the span is empty.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Before returns t moved back by the span.
func (s Span) Before(t time.Time) time.Time {
	t = addMonths(t, -(12*s.Years + s.Months))
	t = t.AddDate(0, 0, -(7*s.Weeks + s.Days))
	return hoursBefore(t, s.Hours)
}

func (s Span) String() string {
	if s.IsZero() {
		return "0h"
	}
	var b strings.Builder
	for _, part := range []struct {
		n    int
		unit byte
	}{{s.Hours, 'h'}, {s.Days, 'd'}, {s.Weeks, 'w'}, {s.Months, 'm'}, {s.Years, 'y'}} {
		if part.n == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(part.n))
		b.WriteByte(part.unit)
	}
	return b.String()
}
