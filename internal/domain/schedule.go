package domain

import (
	"sort"
	"time"
)

// DefaultStart is the wakeup time used when a date has no override.
var DefaultStart = ClockTime{Hour: 8, Minute: 0}

// ScheduleEntry is the per-date record kept by the schedule store.
// Excluded takes precedence over Override when both are set.
type ScheduleEntry struct {
	Date     string
	Excluded bool
	Override *ClockTime // nil when no override
}

// Listing is the result of the list query.
type Listing struct {
	Exclusions []string             // ascending
	Overrides  map[string]ClockTime // date -> time
}

// BuildListing projects entries into a Listing.
func BuildListing(entries []ScheduleEntry) Listing {
	l := Listing{Overrides: make(map[string]ClockTime)}
	for _, e := range entries {
		if e.Excluded {
			l.Exclusions = append(l.Exclusions, e.Date)
		}
		if e.Override != nil {
			l.Overrides[e.Date] = *e.Override
		}
	}
	sort.Strings(l.Exclusions)
	return l
}

// OverrideDates returns the override keys in ascending order.
func (l Listing) OverrideDates() []string {
	out := make([]string, 0, len(l.Overrides))
	for d := range l.Overrides {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// StartTime returns the effective start time of e, or def when e carries
// no override.
func (e ScheduleEntry) StartTime(def ClockTime) ClockTime {
	if e.Override != nil {
		return *e.Override
	}
	return def
}

// StartOn builds the absolute instant for clock time c on date in loc.
// Date must already be validated.
func StartOn(date string, c ClockTime, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, invalid("date", date, "not a calendar date")
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour, c.Minute, 0, 0, loc), nil
}

// InTriggerWindow reports whether now falls in the firing window of start:
// [start-tolerance, start+1m). Tolerance absorbs scheduler jitter around
// the minute boundary.
func InTriggerWindow(now, start time.Time, tolerance time.Duration) bool {
	diff := now.Sub(start)
	return diff >= -tolerance && diff < time.Minute
}
