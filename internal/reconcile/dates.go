package reconcile

import (
	"strings"
	"time"
)

// SentinelDate stands for "no valid check date". A candidate dated exactly at
// the sentinel is treated as unknown; any later date is real.
var SentinelDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// dateLayouts are the two accepted audit date formats: German day.month.year
// (padded or not) and ISO year-month-day.
var dateLayouts = []string{"2.1.2006", "2006-01-02"}

// ParseDate parses a raw check-date string. The bool reports success.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsUnknownDate reports whether t carries no real check-date information.
func IsUnknownDate(t time.Time) bool {
	return !t.After(SentinelDate)
}

// resolveDate keeps the maximum parseable date across candidates. Candidates
// with unparseable dates are discarded; when nothing later than the sentinel
// survives, the sentinel itself is returned.
func resolveDate(cands []Candidate) time.Time {
	best := SentinelDate
	for _, c := range cands {
		if t, ok := ParseDate(c.LastChecked); ok && t.After(best) {
			best = t
		}
	}
	return best
}
