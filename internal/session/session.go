// Package session runs wakeup sessions: prompt the target on a fixed
// cadence until they reply or the deadline passes, then notify the
// recipients either way.
//
// All transitions (Start, MarkResponded, the prompt tick, the deadline)
// take one mutex. Prompts are sent while holding it, so once
// MarkResponded has the lock no later tick can send. Timer callbacks are
// bound to the session that armed them and do nothing once that session
// is no longer current.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/notify"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

// State of the manager or the outcome of a finished session.
type State string

const (
	Idle      State = "idle"
	Active    State = "active"
	Responded State = "responded"
	Escalated State = "escalated"
	Cancelled State = "cancelled"
)

// ErrSessionActive is returned by Start while another session is live.
var ErrSessionActive = errors.New("wakeup session already active")

// Config tunes session timing.
type Config struct {
	PromptInterval time.Duration // default 5m
	Deadline       time.Duration // default 60m
	SendTimeout    time.Duration // per message, default 15s
}

func (c Config) withDefaults() Config {
	if c.PromptInterval <= 0 {
		c.PromptInterval = 5 * time.Minute
	}
	if c.Deadline <= 0 {
		c.Deadline = time.Hour
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	return c
}

type wakeup struct {
	id           string
	targetID     int64
	targetName   string
	recipients   []int64
	startedAt    time.Time
	hasResponded bool
	prompts      int

	promptTimer   *clock.Timer
	deadlineTimer *clock.Timer
}

// Outcome describes how the last session ended.
type Outcome struct {
	SessionID string    `json:"session_id"`
	State     State     `json:"state"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Prompts   int       `json:"prompts"`
}

// Snapshot is a read-only view for status reporting.
type Snapshot struct {
	State     State     `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	TargetID  int64     `json:"target_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Prompts   int       `json:"prompts,omitempty"`
	Last      *Outcome  `json:"last,omitempty"`
}

// Manager owns at most one live session.
type Manager struct {
	clock  clock.Clock
	sink   notify.Sink
	names  *notify.NameCache
	events store.EventLog
	log    *zap.Logger
	cfg    Config

	// base bounds timer-driven sends; cancelled by Stop.
	base   context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	cur  *wakeup
	last *Outcome
}

// NewManager wires a Manager. events may be nil.
func NewManager(clk clock.Clock, sink notify.Sink, events store.EventLog, log *zap.Logger, cfg Config) *Manager {
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		clock:  clk,
		sink:   sink,
		names:  notify.NewNameCache(sink),
		events: events,
		log:    log.With(zap.String("component", "session")),
		cfg:    cfg.withDefaults(),
		base:   base,
		cancel: cancel,
	}
}

// Active reports whether a session is live.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil
}

// Status returns a snapshot of the current and last session.
func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{State: Idle}
	if m.last != nil {
		last := *m.last
		snap.Last = &last
	}
	if s := m.cur; s != nil {
		snap.State = Active
		snap.SessionID = s.id
		snap.TargetID = s.targetID
		snap.StartedAt = s.startedAt
		snap.Prompts = s.prompts
	}
	return snap
}

// Start begins a session for targetID: one prompt now, one every
// PromptInterval, escalation to recipients after Deadline. It returns
// ErrSessionActive if a session is already live.
func (m *Manager) Start(ctx context.Context, targetID int64, recipients []int64) (string, error) {
	if m.Active() {
		return "", ErrSessionActive
	}
	// Resolved before taking the lock: it may hit the network.
	name := m.names.Name(ctx, targetID)

	m.mu.Lock()
	if m.cur != nil {
		m.mu.Unlock()
		return "", ErrSessionActive
	}
	s := &wakeup{
		id:         uuid.NewString(),
		targetID:   targetID,
		targetName: name,
		recipients: append([]int64(nil), recipients...),
		startedAt:  m.clock.Now(),
	}
	m.cur = s
	sendCtx, cancel := context.WithTimeout(ctx, m.cfg.SendTimeout)
	m.sendPromptLocked(sendCtx, s)
	cancel()
	m.armPromptLocked(s)
	s.deadlineTimer = m.clock.AfterFunc(m.untilLocked(s.startedAt.Add(m.cfg.Deadline)), func() { m.onDeadline(s) })
	m.mu.Unlock()

	m.log.Info("session started",
		zap.String("session", s.id),
		logger.UserID("target", targetID),
		zap.Int("recipients", len(s.recipients)),
	)
	m.record(ctx, store.EventSessionStart, targetID, "session "+s.id+" started")
	return s.id, nil
}

// MarkResponded resolves the live session as responded: timers are
// cancelled and every recipient gets one notice. It reports false when no
// session was live.
func (m *Manager) MarkResponded(ctx context.Context) bool {
	m.mu.Lock()
	s := m.cur
	if s == nil || s.hasResponded {
		m.mu.Unlock()
		return false
	}
	s.hasResponded = true
	stopTimers(s)
	now := m.clock.Now()
	m.finishLocked(s, Responded, now)
	m.mu.Unlock()

	elapsed := now.Sub(s.startedAt).Round(time.Second)
	ds := notify.Broadcast(ctx, m.sink, m.log, s.recipients, respondedText(s.targetName, elapsed))
	m.log.Info("session responded",
		zap.String("session", s.id),
		zap.Duration("elapsed", elapsed),
		zap.Int("prompts", s.prompts),
		zap.Int("failed_deliveries", notify.Failed(ds)),
	)
	m.record(ctx, store.EventSessionResponded, s.targetID, "replied after "+elapsed.String())
	return true
}

// Stop cancels the live session, if any, without notifying anyone, and
// aborts in-flight timer sends. Used on shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	if s := m.cur; s != nil {
		stopTimers(s)
		m.finishLocked(s, Cancelled, m.clock.Now())
		m.log.Info("session cancelled", zap.String("session", s.id))
	}
	m.mu.Unlock()
	m.cancel()
}

func (m *Manager) onTick(s *wakeup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur != s || s.hasResponded {
		return
	}
	ctx, cancel := context.WithTimeout(m.base, m.cfg.SendTimeout)
	defer cancel()
	m.sendPromptLocked(ctx, s)
	m.armPromptLocked(s)
}

// armPromptLocked schedules the next prompt at startedAt + n*interval, n
// being the number of prompts already sent, so send latency does not
// accumulate across the session. Caller holds m.mu.
func (m *Manager) armPromptLocked(s *wakeup) {
	due := s.startedAt.Add(time.Duration(s.prompts) * m.cfg.PromptInterval)
	s.promptTimer = m.clock.AfterFunc(m.untilLocked(due), func() { m.onTick(s) })
}

// untilLocked is the delay until t, never zero: a non-positive delay runs
// the callback inline, which would re-enter m.mu.
func (m *Manager) untilLocked(t time.Time) time.Duration {
	if d := t.Sub(m.clock.Now()); d > 0 {
		return d
	}
	return time.Nanosecond
}

// promptsDue is the number of prompts a silent session sends, one at
// t=0 and one per interval up to and including the deadline.
func (m *Manager) promptsDue() int {
	return int(m.cfg.Deadline/m.cfg.PromptInterval) + 1
}

func (m *Manager) onDeadline(s *wakeup) {
	ctx, cancel := context.WithTimeout(m.base, m.cfg.SendTimeout)
	defer cancel()

	m.mu.Lock()
	if m.cur != s || s.hasResponded {
		m.mu.Unlock()
		return
	}
	s.promptTimer.Stop()
	now := m.clock.Now()
	// A prompt due at the deadline instant goes out before escalating,
	// whichever of the two timers fired first.
	if s.prompts < m.promptsDue() {
		m.sendPromptLocked(ctx, s)
	}
	m.finishLocked(s, Escalated, now)
	m.mu.Unlock()

	ds := notify.Broadcast(ctx, m.sink, m.log, s.recipients, escalationText(s.targetName, m.cfg.Deadline))
	m.log.Warn("session escalated",
		zap.String("session", s.id),
		zap.Int("prompts", s.prompts),
		zap.Int("failed_deliveries", notify.Failed(ds)),
	)
	m.record(ctx, store.EventSessionEscalated, s.targetID, "no reply within "+m.cfg.Deadline.String())
}

// sendPromptLocked sends one prompt to the target. Failures are logged and
// do not change state. Caller holds m.mu.
func (m *Manager) sendPromptLocked(ctx context.Context, s *wakeup) {
	s.prompts++
	if err := m.sink.SendText(ctx, s.targetID, promptText(s.prompts)); err != nil {
		err = &domain.DeliveryError{UserID: s.targetID, Err: err}
		m.log.Warn("prompt failed", zap.String("session", s.id), zap.Int("prompt", s.prompts), zap.Error(err))
		return
	}
	m.log.Debug("prompt sent", zap.String("session", s.id), zap.Int("prompt", s.prompts))
}

// finishLocked clears the live session and remembers its outcome. Caller
// holds m.mu.
func (m *Manager) finishLocked(s *wakeup, st State, at time.Time) {
	m.cur = nil
	m.last = &Outcome{
		SessionID: s.id,
		State:     st,
		StartedAt: s.startedAt,
		EndedAt:   at,
		Prompts:   s.prompts,
	}
}

func stopTimers(s *wakeup) {
	if s.promptTimer != nil {
		s.promptTimer.Stop()
	}
	if s.deadlineTimer != nil {
		s.deadlineTimer.Stop()
	}
}

func (m *Manager) record(ctx context.Context, typ string, userID int64, msg string) {
	if m.events == nil {
		return
	}
	err := m.events.Append(ctx, store.LogEntry{Time: m.clock.Now(), Type: typ, UserID: userID, Message: msg})
	if err != nil {
		m.log.Warn("event log append failed", zap.String("event", typ), zap.Error(err))
	}
}
