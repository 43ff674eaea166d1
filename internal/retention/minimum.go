package retention

import (
	"fmt"
	"time"
)

// MinPolicy is a floor on retained snapshots that applies regardless of the
// bucketed rules. The set of implementations is closed: MinNone, MinCount,
// MinDuration, MinAll and MinLatest.
type MinPolicy interface {
	fmt.Stringer
	isMinPolicy()
}

// MinNone keeps nothing beyond the rules.
type MinNone struct{}

// MinCount keeps the N most recent snapshots.
type MinCount struct{ N int }

// MinDuration keeps every snapshot newer than now minus Span.
type MinDuration struct{ Span Span }

// MinAll never deletes.
type MinAll struct{}

// MinLatest always keeps the single most recent snapshot.
type MinLatest struct{}

func (MinNone) isMinPolicy()     {}
func (MinCount) isMinPolicy()    {}
func (MinDuration) isMinPolicy() {}
func (MinAll) isMinPolicy()      {}
func (MinLatest) isMinPolicy()   {}

func (MinNone) String() string       { return "none" }
func (p MinCount) String() string    { return fmt.Sprintf("%d", p.N) }
func (p MinDuration) String() string { return p.Span.String() }
func (MinAll) String() string        { return "all" }
func (MinLatest) String() string     { return "latest" }

// Overlay returns the candidates the minimum policy keeps.
func (c Calendar) Overlay(policy MinPolicy, candidates []Candidate, now time.Time) Selection {
	sel := Selection{}
	ordered := ByRecency(candidates)

	switch p := policy.(type) {
	case nil, MinNone:
	case MinCount:
		for i := 0; i < p.N && i < len(ordered); i++ {
			sel.add(ordered[i].ID, fmt.Sprintf("min %d newest", p.N))
		}
	case MinDuration:
		cutoff := p.Span.Before(now.In(c.Location()))
		for _, cand := range ordered {
			if !cand.Time.Before(cutoff) {
				sel.add(cand.ID, "min within "+p.Span.String())
			}
		}
	case MinAll:
		for _, cand := range ordered {
			sel.add(cand.ID, "min all")
		}
	case MinLatest:
		if len(ordered) > 0 {
			sel.add(ordered[0].ID, "min latest")
		}
	default:
		panic(fmt.Sprintf("retention: unhandled minimum policy %T", policy))
	}
	return sel
}
