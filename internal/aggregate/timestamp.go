package aggregate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidBound is returned by ParseDateFilter for an unparsable bound.
var ErrInvalidBound = errors.New("invalid date bound")

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05-0700",
}

// Values without an offset are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an EVE timestamp into an instant.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateFilter restricts aggregation to an inclusive time window.
// A nil bound is open.
type DateFilter struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether either bound is set.
func (f DateFilter) Bounded() bool {
	return f.Start != nil || f.End != nil
}

// Contains reports whether t falls inside the window.
func (f DateFilter) Contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}
	if f.End != nil && t.After(*f.End) {
		return false
	}
	return true
}

// ParseDateFilter converts raw date strings from a UI control into a filter.
// Blank strings leave the bound open. A date-only value is midnight UTC.
func ParseDateFilter(start, end string) (DateFilter, error) {
	var f DateFilter
	if strings.TrimSpace(start) != "" {
		t, ok := ParseTimestamp(start)
		if !ok {
			return DateFilter{}, fmt.Errorf("start %q: %w", start, ErrInvalidBound)
		}
		f.Start = &t
	}
	if strings.TrimSpace(end) != "" {
		t, ok := ParseTimestamp(end)
		if !ok {
			return DateFilter{}, fmt.Errorf("end %q: %w", end, ErrInvalidBound)
		}
		f.End = &t
	}
	return f, nil
}
