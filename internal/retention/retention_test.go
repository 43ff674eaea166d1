package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utc = NewCalendar(time.UTC)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ids(sel Selection) []string {
	var out []string
	for _, g := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if sel.Has(g) {
			out = append(out, g)
		}
	}
	return out
}

func TestBucket(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		a, b string
		same bool
	}{
		{"same hour", Hour, "2025-06-10T12:01:00Z", "2025-06-10T12:59:59Z", true},
		{"adjacent hours", Hour, "2025-06-10T11:59:59Z", "2025-06-10T12:00:00Z", false},
		{"same hour different day", Hour, "2025-06-10T12:00:00Z", "2025-06-11T12:00:00Z", false},
		{"same day", Day, "2025-06-10T00:00:00Z", "2025-06-10T23:59:59Z", true},
		{"iso week across new year", Week, "2024-12-30T08:00:00Z", "2025-01-02T08:00:00Z", true},
		{"sunday and monday", Week, "2025-06-08T23:00:00Z", "2025-06-09T01:00:00Z", false},
		{"same month", Month, "2025-02-01T00:00:00Z", "2025-02-28T23:00:00Z", true},
		{"same month other year", Month, "2024-02-01T00:00:00Z", "2025-02-01T00:00:00Z", false},
		{"same year", Year, "2025-01-01T00:00:00Z", "2025-12-31T23:59:59Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := utc.Bucket(tt.g, at(tt.a)) == utc.Bucket(tt.g, at(tt.b))
			assert.Equal(t, tt.same, got)
		})
	}
}

func TestBucketUsesCalendarZone(t *testing.T) {
	est := NewCalendar(time.FixedZone("EST", -5*3600))

	// 02:30 UTC on the 10th is 21:30 on the 9th in EST.
	late := at("2025-06-10T02:30:00Z")
	evening := at("2025-06-09T20:00:00Z")

	assert.NotEqual(t, utc.Bucket(Day, late), utc.Bucket(Day, evening))
	assert.Equal(t, est.Bucket(Day, late), est.Bucket(Day, evening))
}

func TestWindowStart(t *testing.T) {
	now := at("2025-03-31T12:00:00Z")

	assert.Equal(t, at("2025-03-29T12:00:00Z"), utc.WindowStart(Hour, 48, now))
	assert.Equal(t, at("2025-03-17T12:00:00Z"), utc.WindowStart(Day, 14, now))
	assert.Equal(t, at("2025-03-03T12:00:00Z"), utc.WindowStart(Week, 4, now))
	assert.Equal(t, at("2025-02-28T12:00:00Z"), utc.WindowStart(Month, 1, now))
	assert.Equal(t, at("2024-09-30T12:00:00Z"), utc.WindowStart(Month, 6, now))
	assert.Equal(t, at("2023-03-31T12:00:00Z"), utc.WindowStart(Year, 2, now))

	leap := at("2024-02-29T00:00:00Z")
	assert.Equal(t, at("2023-02-28T00:00:00Z"), utc.WindowStart(Year, 1, leap))
}

func TestLargeHourCounts(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")

	start := utc.WindowStart(Hour, 3000000, now)
	assert.True(t, start.Before(now))
	assert.Equal(t, now.Add(-1000*time.Hour).Add(-1499000*time.Hour).Add(-1500000*time.Hour).Unix(), start.Unix())
	assert.True(t, Span{Hours: 3000000}.Before(now).Before(now))

	cands := []Candidate{{ID: "a", Time: now.Add(-10 * time.Minute)}}
	sel := utc.Evaluate([]Rule{{Granularity: Hour, Count: 3000000}}, cands, now)
	assert.True(t, sel.Has("a"))
}

func TestEvaluateHourlySampling(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	cands := []Candidate{
		{ID: "a", Time: now.Add(-10 * time.Minute)},
		{ID: "b", Time: now.Add(-70 * time.Minute)},
		{ID: "c", Time: now.Add(-170 * time.Minute)},
	}

	sel := utc.Evaluate([]Rule{{Granularity: Hour, Count: 2}}, cands, now)
	assert.Equal(t, []string{"a", "b"}, ids(sel))
	assert.Equal(t, []string{"hourly 2h"}, sel["a"])
}

func TestEvaluateKeepsNewestPerBucket(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	cands := []Candidate{
		{ID: "a", Time: at("2025-06-10T12:10:00Z")},
		{ID: "b", Time: at("2025-06-10T12:20:00Z")},
		{ID: "c", Time: at("2025-06-10T11:05:00Z")},
	}

	sel := utc.Evaluate([]Rule{{Granularity: Hour, Count: 3}}, cands, now)
	assert.Equal(t, []string{"b", "c"}, ids(sel))
}

func TestEvaluateUnionAcrossRules(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	cands := []Candidate{
		{ID: "a", Time: at("2025-06-10T12:20:00Z")},
		{ID: "b", Time: at("2025-06-10T11:20:00Z")},
		{ID: "c", Time: at("2025-06-10T09:40:00Z")},
		{ID: "d", Time: at("2025-06-09T23:00:00Z")},
		{ID: "e", Time: at("2025-06-09T08:00:00Z")},
		{ID: "f", Time: at("2025-06-07T10:00:00Z")},
	}
	rules := []Rule{{Granularity: Hour, Count: 2}, {Granularity: Day, Count: 3}}

	sel := utc.Evaluate(rules, cands, now)
	assert.Equal(t, []string{"a", "b", "d"}, ids(sel))
	assert.Equal(t, []string{"hourly 2h", "daily 3d"}, sel["a"])
	assert.Equal(t, []string{"daily 3d"}, sel["d"])
}

func TestEvaluateIgnoresFutureTimestamps(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	cands := []Candidate{
		{ID: "a", Time: at("2025-06-10T12:40:00Z")},
		{ID: "b", Time: at("2025-06-10T12:10:00Z")},
	}

	sel := utc.Evaluate([]Rule{{Granularity: Hour, Count: 1}}, cands, now)
	assert.Equal(t, []string{"b"}, ids(sel))
}

func TestEvaluateEqualTimestamps(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	ts := at("2025-06-10T12:00:00Z")
	cands := []Candidate{{ID: "a", Time: ts}, {ID: "b", Time: ts}}

	require.NotPanics(t, func() {
		sel := utc.Evaluate([]Rule{{Granularity: Hour, Count: 1}}, cands, now)
		assert.Equal(t, []string{"b"}, ids(sel))
	})
}

func TestEvaluateNoRules(t *testing.T) {
	now := at("2025-06-10T12:30:00Z")
	cands := []Candidate{{ID: "a", Time: now}}

	assert.Empty(t, utc.Evaluate(nil, cands, now))
}

func TestOverlay(t *testing.T) {
	now := at("2025-06-10T12:00:00Z")
	cands := []Candidate{
		{ID: "c", Time: at("2025-06-01T12:00:00Z")},
		{ID: "a", Time: at("2025-06-10T11:00:00Z")},
		{ID: "b", Time: at("2025-06-08T12:00:00Z")},
		{ID: "d", Time: at("2025-05-01T12:00:00Z")},
	}

	tests := []struct {
		name   string
		policy MinPolicy
		want   []string
	}{
		{"nil", nil, nil},
		{"none", MinNone{}, nil},
		{"count", MinCount{N: 2}, []string{"a", "b"}},
		{"count larger than set", MinCount{N: 10}, []string{"a", "b", "c", "d"}},
		{"count zero", MinCount{N: 0}, nil},
		{"duration", MinDuration{Span: Span{Days: 5}}, []string{"a", "b"}},
		{"duration boundary inclusive", MinDuration{Span: Span{Days: 2}}, []string{"a", "b"}},
		{"duration month", MinDuration{Span: Span{Months: 1}}, []string{"a", "b", "c"}},
		{"all", MinAll{}, []string{"a", "b", "c", "d"}},
		{"latest", MinLatest{}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(utc.Overlay(tt.policy, cands, now)))
		})
	}
}

func TestOverlayLatestEmpty(t *testing.T) {
	assert.Empty(t, utc.Overlay(MinLatest{}, nil, at("2025-06-10T12:00:00Z")))
}

func TestSelectionUnion(t *testing.T) {
	a := Selection{"x": {"hourly 2h"}}
	b := Selection{"x": {"min all"}, "y": {"min all"}}

	u := a.Union(b)
	assert.Equal(t, []string{"hourly 2h", "min all"}, u["x"])
	assert.Equal(t, []string{"min all"}, u["y"])
	assert.Equal(t, []string{"hourly 2h"}, a["x"], "union must not alias its inputs")
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		in      string
		want    []Rule
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "48h 14d", want: []Rule{{Hour, 48}, {Day, 14}}},
		{in: "48h14d4w", want: []Rule{{Hour, 48}, {Day, 14}, {Week, 4}}},
		{in: " 6m  2y ", want: []Rule{{Month, 6}, {Year, 2}}},
		{in: "0h 7d", want: []Rule{{Day, 7}}},
		{in: "14d 48h", wantErr: true},
		{in: "4d 5d", wantErr: true},
		{in: "5x", wantErr: true},
		{in: "h", wantErr: true},
		{in: "-3d", wantErr: true},
		{in: "3000000h", wantErr: true},
		{in: "1000000h", want: []Rule{{Hour, MaxCount}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRules(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpan(t *testing.T) {
	got, err := ParseSpan("5d")
	require.NoError(t, err)
	assert.Equal(t, Span{Days: 5}, got)

	got, err = ParseSpan("12h 1w")
	require.NoError(t, err)
	assert.Equal(t, Span{Hours: 12, Weeks: 1}, got)
	assert.Equal(t, "12h 1w", got.String())

	_, err = ParseSpan("")
	require.Error(t, err)

	_, err = ParseSpan("1d 2d")
	require.Error(t, err)
}

func TestSpanBefore(t *testing.T) {
	now := at("2025-03-31T12:00:00Z")

	assert.Equal(t, at("2025-03-26T12:00:00Z"), Span{Days: 5}.Before(now))
	assert.Equal(t, at("2025-02-28T00:00:00Z"), Span{Months: 1, Hours: 12}.Before(now))
	assert.Equal(t, at("2024-03-31T12:00:00Z"), Span{Years: 1}.Before(now))
}

func TestFormatRules(t *testing.T) {
	assert.Equal(t, "48h 14d 2y", FormatRules([]Rule{{Hour, 48}, {Day, 14}, {Year, 2}}))
	assert.Equal(t, "", FormatRules(nil))
}
