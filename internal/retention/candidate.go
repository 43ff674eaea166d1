package retention

import (
	"sort"
	"time"
)

// Candidate is a snapshot considered for retention: the pending one and
// every existing one of a job.
type Candidate struct {
	ID   string
	Time time.Time
}

// Newer reports whether a is more recent than b. Equal timestamps are
// ordered by the lexicographically larger ID first.
func Newer(a, b Candidate) bool {
	if !a.Time.Equal(b.Time) {
		return a.Time.After(b.Time)
	}
	return a.ID > b.ID
}

// ByRecency returns a copy of cs sorted newest first.
func ByRecency(cs []Candidate) []Candidate {
	out := append([]Candidate(nil), cs...)
	sort.SliceStable(out, func(i, j int) bool { return Newer(out[i], out[j]) })
	return out
}

// Selection maps retained candidate IDs to the reasons that retain them.
type Selection map[string][]string

func (s Selection) add(id, reason string) {
	s[id] = append(s[id], reason)
}

// Has reports whether id is retained.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new selection holding the IDs of both, with s's reasons
// before o's.
func (s Selection) Union(o Selection) Selection {
	out := make(Selection, len(s)+len(o))
	for id, reasons := range s {
		out[id] = append([]string(nil), reasons...)
	}
	for id, reasons := range o {
		out[id] = append(out[id], reasons...)
	}
	return out
}
