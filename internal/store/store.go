package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// ScheduleStore is the date -> {excluded, override} mapping the trigger
// reads and admin commands mutate. Dates are YYYY-MM-DD strings; malformed
// input yields a *domain.ValidationError and leaves the store untouched.
// Backend failures wrap domain.ErrStorage.
type ScheduleStore interface {
	IsExcluded(ctx context.Context, date string) (bool, error)
	ResolveStartTime(ctx context.Context, date string) (domain.ClockTime, error)
	AddExclusion(ctx context.Context, date string) error
	RemoveExclusion(ctx context.Context, date string) error
	SetOverride(ctx context.Context, date string, hour, minute int) error
	RemoveOverride(ctx context.Context, date string) error
	List(ctx context.Context) (domain.Listing, error)
	Backend() string
}

// Backend is the persistence primitive behind Schedule. Put must be
// durable when it returns nil.
type Backend interface {
	Name() string
	Get(ctx context.Context, date string) (domain.ScheduleEntry, bool, error)
	Put(ctx context.Context, e domain.ScheduleEntry) error
	All(ctx context.Context) ([]domain.ScheduleEntry, error)
	Close() error
}

// Schedule implements ScheduleStore over any Backend.
type Schedule struct {
	backend Backend
	def     domain.ClockTime

	// mu serializes read-modify-write cycles on the backend.
	mu sync.Mutex
}

var _ ScheduleStore = (*Schedule)(nil)

// NewSchedule wraps b; def is returned by ResolveStartTime for dates
// without an override.
func NewSchedule(b Backend, def domain.ClockTime) *Schedule {
	return &Schedule{backend: b, def: def}
}

// Backend returns the backend name (memory, file, sqlite, redis).
func (s *Schedule) Backend() string { return s.backend.Name() }

// Close releases the backend.
func (s *Schedule) Close() error { return s.backend.Close() }

// DefaultStart returns the configured default start time.
func (s *Schedule) DefaultStart() domain.ClockTime { return s.def }

func (s *Schedule) IsExcluded(ctx context.Context, date string) (bool, error) {
	e, _, err := s.get(ctx, date)
	if err != nil {
		return false, err
	}
	return e.Excluded, nil
}

func (s *Schedule) ResolveStartTime(ctx context.Context, date string) (domain.ClockTime, error) {
	e, _, err := s.get(ctx, date)
	if err != nil {
		return domain.ClockTime{}, err
	}
	return e.StartTime(s.def), nil
}

func (s *Schedule) AddExclusion(ctx context.Context, date string) error {
	return s.mutate(ctx, date, func(e *domain.ScheduleEntry) { e.Excluded = true })
}

func (s *Schedule) RemoveExclusion(ctx context.Context, date string) error {
	return s.mutate(ctx, date, func(e *domain.ScheduleEntry) { e.Excluded = false })
}

func (s *Schedule) SetOverride(ctx context.Context, date string, hour, minute int) error {
	t, err := domain.NewClockTime(hour, minute)
	if err != nil {
		return err
	}
	return s.mutate(ctx, date, func(e *domain.ScheduleEntry) { e.Override = &t })
}

func (s *Schedule) RemoveOverride(ctx context.Context, date string) error {
	return s.mutate(ctx, date, func(e *domain.ScheduleEntry) { e.Override = nil })
}

func (s *Schedule) List(ctx context.Context) (domain.Listing, error) {
	entries, err := s.backend.All(ctx)
	if err != nil {
		return domain.Listing{}, storageErr("list", err)
	}
	return domain.BuildListing(entries), nil
}

func (s *Schedule) get(ctx context.Context, date string) (domain.ScheduleEntry, bool, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return domain.ScheduleEntry{}, false, err
	}
	e, ok, err := s.backend.Get(ctx, date)
	if err != nil {
		return domain.ScheduleEntry{}, false, storageErr("get "+date, err)
	}
	if !ok {
		e = domain.ScheduleEntry{Date: date}
	}
	return e, ok, nil
}

// mutate applies fn to the entry for date and persists it. Unchanged
// entries are not written, which makes every mutation idempotent.
func (s *Schedule) mutate(ctx context.Context, date string, fn func(*domain.ScheduleEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _, err := s.get(ctx, date)
	if err != nil {
		return err
	}
	next := cur
	if cur.Override != nil {
		o := *cur.Override
		next.Override = &o
	}
	fn(&next)
	if sameEntry(cur, next) {
		return nil
	}
	if err := s.backend.Put(ctx, next); err != nil {
		return storageErr("put "+date, err)
	}
	return nil
}

func sameEntry(a, b domain.ScheduleEntry) bool {
	if a.Excluded != b.Excluded {
		return false
	}
	if (a.Override == nil) != (b.Override == nil) {
		return false
	}
	return a.Override == nil || *a.Override == *b.Override
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}
