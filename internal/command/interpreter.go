// Package command turns admin text messages into schedule queries and
// mutations.
package command

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/logger"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

// Outcome classifies one command attempt for logging.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeStorageError Outcome = "storage_error"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeUnrecognized Outcome = "unrecognized"
)

// Result is what the transport should do with a message. An empty Reply
// means send nothing.
type Result struct {
	Outcome Outcome
	Reply   string
	Err     error
}

// Interpreter authorizes and executes admin commands. Unrecognized text
// gets no reply.
type Interpreter struct {
	store  store.ScheduleStore
	admins map[int64]struct{}
	events store.EventLog
	clock  clock.Clock
	log    *zap.Logger
}

// New builds an Interpreter. events may be nil.
func New(st store.ScheduleStore, admins []int64, events store.EventLog, clk clock.Clock, log *zap.Logger) *Interpreter {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &Interpreter{
		store:  st,
		admins: set,
		events: events,
		clock:  clk,
		log:    log.With(zap.String("component", "command")),
	}
}

// IsAdmin reports whether userID may issue commands.
func (i *Interpreter) IsAdmin(userID int64) bool {
	_, ok := i.admins[userID]
	return ok
}

// Handle interprets one message from senderID. Every call is logged.
func (i *Interpreter) Handle(ctx context.Context, senderID int64, text string) Result {
	res := i.handle(ctx, senderID, text)
	i.audit(ctx, senderID, text, res)
	return res
}

func (i *Interpreter) handle(ctx context.Context, senderID int64, text string) Result {
	if !i.IsAdmin(senderID) {
		return Result{Outcome: OutcomeUnauthorized, Reply: refusalText, Err: domain.ErrUnauthorized}
	}

	cmd, err := Parse(text)
	if err != nil {
		return Result{Outcome: OutcomeInvalid, Reply: invalidText(err), Err: err}
	}

	switch cmd.Kind {
	case KindUnknown:
		return Result{Outcome: OutcomeUnrecognized}
	case KindHelp:
		return Result{Outcome: OutcomeOK, Reply: helpText}
	case KindList:
		l, err := i.store.List(ctx)
		if err != nil {
			return failure(err)
		}
		return Result{Outcome: OutcomeOK, Reply: formatListing(l)}
	}

	if err := i.apply(ctx, cmd); err != nil {
		return failure(err)
	}
	return Result{Outcome: OutcomeOK, Reply: confirmText(cmd)}
}

func (i *Interpreter) apply(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindExclude:
		return i.store.AddExclusion(ctx, cmd.Date)
	case KindUnexclude:
		return i.store.RemoveExclusion(ctx, cmd.Date)
	case KindOverride:
		return i.store.SetOverride(ctx, cmd.Date, cmd.Time.Hour, cmd.Time.Minute)
	case KindUnoverride:
		return i.store.RemoveOverride(ctx, cmd.Date)
	}
	return errors.New("command: unhandled kind " + string(cmd.Kind))
}

func failure(err error) Result {
	if domain.IsValidation(err) {
		return Result{Outcome: OutcomeInvalid, Reply: invalidText(err), Err: err}
	}
	return Result{Outcome: OutcomeStorageError, Reply: storageText, Err: err}
}

func (i *Interpreter) audit(ctx context.Context, senderID int64, text string, res Result) {
	fields := []zap.Field{
		logger.UserID("user", senderID),
		zap.String("text", text),
		zap.String("outcome", string(res.Outcome)),
	}
	switch res.Outcome {
	case OutcomeStorageError:
		i.log.Error("command failed", append(fields, zap.Error(res.Err))...)
	case OutcomeUnauthorized:
		i.log.Warn("command refused", fields...)
	default:
		i.log.Info("command", fields...)
	}

	if i.events == nil {
		return
	}
	err := i.events.Append(ctx, store.LogEntry{
		Time:    i.clock.Now(),
		Type:    store.EventCommand,
		UserID:  senderID,
		Message: string(res.Outcome) + ": " + text,
	})
	if err != nil {
		i.log.Warn("event log append failed", zap.Error(err))
	}
}
