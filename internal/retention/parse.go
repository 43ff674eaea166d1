package retention

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxCount bounds the count of a single term. A million hours is about 114
// years; larger values of any unit are configuration mistakes.
const MaxCount = 1_000_000

// matches one "<n><unit>" term, optionally preceded by whitespace
var termPattern = regexp.MustCompile(`^\s*(\d+)([hdwmy])`)

type term struct {
	n int
	g Granularity
}

func unitGranularity(u byte) Granularity {
	for _, g := range Granularities() {
		if g.Unit() == u {
			return g
		}
	}
	return -1
}

// terms splits s into "<n><unit>" terms. Whitespace between terms is
// optional, so "48h 14d" and "48h14d" are equivalent.
func terms(s string) ([]term, error) {
	var out []term
	rest := s
	for strings.TrimSpace(rest) != "" {
		m := termPattern.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, fmt.Errorf("invalid term %q in %q", strings.TrimSpace(rest), s)
		}
		n, err := strconv.Atoi(rest[m[2]:m[3]])
		if err != nil {
			return nil, fmt.Errorf("invalid count in %q: %w", s, err)
		}
		if n > MaxCount {
			return nil, fmt.Errorf("count %d in %q exceeds %d", n, s, MaxCount)
		}
		out = append(out, term{n: n, g: unitGranularity(rest[m[4]])})
		rest = rest[m[1]:]
	}
	return out, nil
}

// ParseRules parses the retention syntax "48h 14d 4w 6m 2y". Units must
// appear in ascending order and at most once. Terms with a zero count are
// dropped. An empty string yields no rules.
func ParseRules(s string) ([]Rule, error) {
	ts, err := terms(s)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	last := Granularity(-1)
	for _, t := range ts {
		if t.g <= last {
			return nil, fmt.Errorf("retention %q: %c must come after %c and appear once", s, t.g.Unit(), last.Unit())
		}
		last = t.g
		if t.n == 0 {
			continue
		}
		rules = append(rules, Rule{Granularity: t.g, Count: t.n})
	}
	return rules, nil
}

// ParseSpan parses a span such as "5d" or "1w 12h". Units may appear in any
// order but only once.
func ParseSpan(s string) (Span, error) {
	ts, err := terms(s)
	if err != nil {
		return Span{}, err
	}
	if len(ts) == 0 {
		return Span{}, fmt.Errorf("empty span")
	}

	var span Span
	seen := make(map[Granularity]bool, len(ts))
	for _, t := range ts {
		if seen[t.g] {
			return Span{}, fmt.Errorf("span %q: unit %c repeated", s, t.g.Unit())
		}
		seen[t.g] = true
		switch t.g {
		case Hour:
			span.Hours = t.n
		case Day:
			span.Days = t.n
		case Week:
			span.Weeks = t.n
		case Month:
			span.Months = t.n
		case Year:
			span.Years = t.n
		}
	}
	return span, nil
}
