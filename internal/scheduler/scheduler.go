package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/session"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

// Starter is what the trigger needs from the session manager.
// session.Manager implements it.
type Starter interface {
	Start(ctx context.Context, targetID int64, recipients []int64) (string, error)
}

// Config holds the trigger's fixed inputs.
type Config struct {
	Location   *time.Location
	TargetID   int64
	Recipients []int64
	Interval   time.Duration // tick period, default 1m
	Tolerance  time.Duration // early slack before the start minute
}

// Trigger polls the schedule and starts at most one wakeup session per
// calendar day in Location.
type Trigger struct {
	clock   clock.Clock
	store   store.ScheduleStore
	starter Starter
	events  store.EventLog
	log     *zap.Logger
	cfg     Config

	mu      sync.Mutex
	handled string // last date fired, skipped or found excluded
}

// Plan describes one day as the trigger sees it.
type Plan struct {
	Date     string    `json:"date"`
	Start    string    `json:"start"`
	StartsAt time.Time `json:"starts_at"`
	Excluded bool      `json:"excluded"`
	Handled  bool      `json:"handled"`
}

// New creates a Trigger. events may be nil.
func New(clk clock.Clock, st store.ScheduleStore, starter Starter, events store.EventLog, log *zap.Logger, cfg Config) *Trigger {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Trigger{
		clock:   clk,
		store:   st,
		starter: starter,
		events:  events,
		log:     log.With(zap.String("component", "trigger")),
		cfg:     cfg,
	}
}

// Run checks once immediately and then on every tick until ctx is canceled.
func (t *Trigger) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.log.Info("trigger running",
		zap.String("tz", t.cfg.Location.String()),
		zap.Duration("interval", t.cfg.Interval),
	)
	t.tick(ctx, t.clock.Now())

	for {
		select {
		case <-ctx.Done():
			t.log.Info("trigger stopping")
			return
		case now := <-ticker.C:
			t.tick(ctx, now)
		}
	}
}

// tick performs one check. Near midnight the tolerance can reach into the
// next day, so both dates are considered.
func (t *Trigger) tick(ctx context.Context, now time.Time) {
	local := now.In(t.cfg.Location)
	today := domain.DateOf(local)
	dates := []string{today}
	if ahead := domain.DateOf(local.Add(t.cfg.Tolerance)); ahead != today {
		dates = append(dates, ahead)
	}
	for _, date := range dates {
		t.check(ctx, local, date)
	}
}

func (t *Trigger) check(ctx context.Context, now time.Time, date string) {
	if t.isHandled(date) {
		return
	}

	start, err := t.store.ResolveStartTime(ctx, date)
	if err != nil {
		t.log.Error("resolve start time failed", zap.String("date", date), zap.Error(err))
		return
	}
	at, err := domain.StartOn(date, start, t.cfg.Location)
	if err != nil {
		t.log.Error("bad start instant", zap.String("date", date), zap.Error(err))
		return
	}
	if !domain.InTriggerWindow(now, at, t.cfg.Tolerance) {
		return
	}

	excluded, err := t.store.IsExcluded(ctx, date)
	if err != nil {
		t.log.Error("exclusion lookup failed", zap.String("date", date), zap.Error(err))
		return
	}
	t.markHandled(date)
	if excluded {
		t.log.Info("date excluded, no session", zap.String("date", date))
		return
	}

	id, err := t.starter.Start(ctx, t.cfg.TargetID, t.cfg.Recipients)
	switch {
	case errors.Is(err, session.ErrSessionActive):
		t.log.Warn("session still active, trigger skipped", zap.String("date", date))
		t.record(ctx, "trigger for "+date+" skipped: session active")
	case err != nil:
		t.log.Error("session start failed", zap.String("date", date), zap.Error(err))
	default:
		t.log.Info("wakeup triggered",
			zap.String("date", date),
			zap.String("start", start.String()),
			zap.String("session", id),
			logger.UserID("target", t.cfg.TargetID),
		)
	}
}

// Today reports the plan for the current local date.
func (t *Trigger) Today(ctx context.Context) (Plan, error) {
	date := domain.DateOf(t.clock.Now().In(t.cfg.Location))
	start, err := t.store.ResolveStartTime(ctx, date)
	if err != nil {
		return Plan{}, err
	}
	excluded, err := t.store.IsExcluded(ctx, date)
	if err != nil {
		return Plan{}, err
	}
	at, err := domain.StartOn(date, start, t.cfg.Location)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Date:     date,
		Start:    start.String(),
		StartsAt: at,
		Excluded: excluded,
		Handled:  t.isHandled(date),
	}, nil
}

func (t *Trigger) isHandled(date string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handled == date
}

func (t *Trigger) markHandled(date string) {
	t.mu.Lock()
	t.handled = date
	t.mu.Unlock()
}

func (t *Trigger) record(ctx context.Context, msg string) {
	if t.events == nil {
		return
	}
	err := t.events.Append(ctx, store.LogEntry{
		Time:    t.clock.Now(),
		Type:    store.EventTriggerSkipped,
		UserID:  t.cfg.TargetID,
		Message: msg,
	})
	if err != nil {
		t.log.Warn("event log append failed", zap.Error(err))
	}
}
