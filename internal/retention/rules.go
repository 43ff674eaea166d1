package retention

import (
	"fmt"
	"strings"
	"time"
)

// Rule keeps one snapshot per Granularity unit for the most recent Count
// units.
type Rule struct {
	Granularity Granularity
	Count       int
}

func (r Rule) String() string {
	return fmt.Sprintf("%d%c", r.Count, r.Granularity.Unit())
}

// FormatRules renders rules in the text syntax, e.g. "48h 14d".
func FormatRules(rules []Rule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// Evaluate applies every rule independently and returns the union of the
// bucket representatives. For each rule, candidates in
// [WindowStart(rule), now] are grouped by bucket and the newest member of
// each bucket is retained.
func (c Calendar) Evaluate(rules []Rule, candidates []Candidate, now time.Time) Selection {
	sel := Selection{}
	if len(rules) == 0 || len(candidates) == 0 {
		return sel
	}

	ordered := ByRecency(candidates)
	for _, rule := range rules {
		if rule.Count <= 0 {
			continue
		}
		start := c.WindowStart(rule.Granularity, rule.Count, now)
		reason := fmt.Sprintf("%s %s", rule.Granularity, rule)
		seen := make(map[Bucket]struct{})

		for _, cand := range ordered {
			if cand.Time.Before(start) || cand.Time.After(now) {
				continue
			}
			b := c.Bucket(rule.Granularity, cand.Time)
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			sel.add(cand.ID, reason)
		}
	}
	return sel
}
