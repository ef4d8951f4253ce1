package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date layout used for schedule keys.
const DateLayout = "2006-01-02"

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// NewClockTime validates hour in [0,23] and minute in [0,59].
func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 {
		return ClockTime{}, invalid("hour", strconv.Itoa(hour), "must be between 0 and 23")
	}
	if minute < 0 || minute > 59 {
		return ClockTime{}, invalid("minute", strconv.Itoa(minute), "must be between 0 and 59")
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// String returns HH:MM.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseDate checks that s is a zero-padded YYYY-MM-DD calendar date and
// returns it unchanged.
func ParseDate(s string) (string, error) {
	if !dateRe.MatchString(s) {
		return "", invalid("date", s, "expected YYYY-MM-DD")
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", invalid("date", s, "not a calendar date")
	}
	return s, nil
}

// ParseClockTime parses "H", "HH", "H:MM" or "HH:MM". A missing minute
// part means :00.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClockTime{}, invalid("time", s, "expected HH[:MM]")
	}
	hourPart, minPart, hasMin := strings.Cut(s, ":")
	h, err := parseDigits(hourPart, 2)
	if err != nil {
		return ClockTime{}, invalid("time", s, "expected HH[:MM]")
	}
	m := 0
	if hasMin {
		if len(minPart) != 2 {
			return ClockTime{}, invalid("time", s, "minutes must have two digits")
		}
		if m, err = parseDigits(minPart, 2); err != nil {
			return ClockTime{}, invalid("time", s, "expected HH[:MM]")
		}
	}
	return NewClockTime(h, m)
}

func parseDigits(s string, maxLen int) (int, error) {
	if s == "" || len(s) > maxLen {
		return 0, fmt.Errorf("bad number %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("bad number %q", s)
		}
	}
	return strconv.Atoi(s)
}

// ValidateTZ checks that the tz is a valid IANA location.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalid("timezone", tz, err.Error())
	}
	return loc, nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
