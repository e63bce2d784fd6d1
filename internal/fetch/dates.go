package fetch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var relativeDateRe = regexp.MustCompile(`^(\d+|an?|one)\s+(second|sec|minute|min|hour|hr|day|week|month|year)s?\s+ago$`)

// ParseFuzzyDate understands the relative phrases search providers emit
// ("3 hours ago", "yesterday") as well as any absolute layout dateparse knows.
// The result is always UTC.
func ParseFuzzyDate(raw string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	now = now.UTC()

	switch s {
	case "":
		return time.Time{}, fmt.Errorf("empty date")
	case "just now", "now", "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}

	if m := relativeDateRe.FindStringSubmatch(s); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		return subtract(now, n, m[2]), nil
	}

	t, err := dateparse.ParseAny(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t.UTC(), nil
}

func subtract(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "second", "sec":
		return now.Add(-time.Duration(n) * time.Second)
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(-n, 0, 0)
	}
}
