package domain

import (
	"testing"
	"time"
)

// helper: build a time in given tz
func mustLocal(t *testing.T, tz string, y int, m time.Month, d, hh, mm, ss int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func TestParseDate(t *testing.T) {
	good := []string{"2025-06-01", "2024-02-29", "1999-12-31"}
	for _, s := range good {
		if _, err := ParseDate(s); err != nil {
			t.Fatalf("ParseDate(%q): %v", s, err)
		}
	}
	bad := []string{"2025-6-1", "2025-06-1", "25-06-01", "2025/06/01", "2025-13-01", "2023-02-29", "", " 2025-06-01"}
	for _, s := range bad {
		_, err := ParseDate(s)
		if err == nil {
			t.Fatalf("ParseDate(%q): want error", s)
		}
		if !IsValidation(err) {
			t.Fatalf("ParseDate(%q): want ValidationError, got %T", s, err)
		}
	}
}

func TestParseClockTime(t *testing.T) {
	cases := map[string]ClockTime{
		"7":     {7, 0},
		"07":    {7, 0},
		"7:30":  {7, 30},
		"23:59": {23, 59},
		"0:05":  {0, 5},
	}
	for in, want := range cases {
		got, err := ParseClockTime(in)
		if err != nil {
			t.Fatalf("ParseClockTime(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClockTime(%q): want %v, got %v", in, want, got)
		}
	}
	for _, in := range []string{"", "24", "7:60", "7:5", "-1", "ab", "7:30:00", "123"} {
		if _, err := ParseClockTime(in); !IsValidation(err) {
			t.Fatalf("ParseClockTime(%q): want ValidationError, got %v", in, err)
		}
	}
}

func TestClockTimeString(t *testing.T) {
	if got := (ClockTime{7, 5}).String(); got != "07:05" {
		t.Fatalf("want 07:05, got %s", got)
	}
}

func TestStartTime_DefaultAndOverride(t *testing.T) {
	e := ScheduleEntry{Date: "2025-06-01"}
	if got := e.StartTime(DefaultStart); got != DefaultStart {
		t.Fatalf("want default %v, got %v", DefaultStart, got)
	}
	e.Override = &ClockTime{7, 30}
	if got := e.StartTime(DefaultStart); got != (ClockTime{7, 30}) {
		t.Fatalf("want 07:30, got %v", got)
	}
}

func TestBuildListing(t *testing.T) {
	l := BuildListing([]ScheduleEntry{
		{Date: "2025-06-03", Excluded: true},
		{Date: "2025-06-01", Override: &ClockTime{7, 30}},
		{Date: "2025-06-02", Excluded: true, Override: &ClockTime{9, 0}},
		{Date: "2025-06-04"},
	})
	if len(l.Exclusions) != 2 || l.Exclusions[0] != "2025-06-02" || l.Exclusions[1] != "2025-06-03" {
		t.Fatalf("unexpected exclusions: %v", l.Exclusions)
	}
	if len(l.Overrides) != 2 {
		t.Fatalf("unexpected overrides: %v", l.Overrides)
	}
	dates := l.OverrideDates()
	if dates[0] != "2025-06-01" || dates[1] != "2025-06-02" {
		t.Fatalf("unexpected override order: %v", dates)
	}
}

func TestInTriggerWindow(t *testing.T) {
	start, err := StartOn("2025-06-01", ClockTime{7, 30}, time.UTC)
	if err != nil {
		t.Fatalf("StartOn: %v", err)
	}
	tol := 5 * time.Second
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact", start, true},
		{"jitter before", start.Add(-3 * time.Second), true},
		{"too early", start.Add(-10 * time.Second), false},
		{"same minute", start.Add(42 * time.Second), true},
		{"next minute", start.Add(time.Minute), false},
	}
	for _, c := range cases {
		if got := InTriggerWindow(c.now, start, tol); got != c.want {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, got)
		}
	}
}

func TestStartOn_UsesLocation(t *testing.T) {
	loc, err := ValidateTZ("Asia/Tokyo")
	if err != nil {
		t.Fatalf("tz: %v", err)
	}
	got, err := StartOn("2025-06-01", ClockTime{7, 30}, loc)
	if err != nil {
		t.Fatalf("StartOn: %v", err)
	}
	want := mustLocal(t, "Asia/Tokyo", 2025, time.June, 1, 7, 30, 0)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if DateOf(got) != "2025-06-01" {
		t.Fatalf("DateOf: got %s", DateOf(got))
	}
}
