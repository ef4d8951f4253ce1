package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
)

const (
	admin    int64 = 11
	stranger int64 = 99
)

type brokenStore struct {
	store.ScheduleStore
}

func (brokenStore) AddExclusion(context.Context, string) error {
	return errors.New("add_exclusion: " + domain.ErrStorage.Error())
}

func (brokenStore) List(context.Context) (domain.Listing, error) {
	return domain.Listing{}, domain.ErrStorage
}

func newInterpreter(t *testing.T, st store.ScheduleStore) (*Interpreter, *store.MemoryLog) {
	t.Helper()
	events := store.NewMemoryLog(50)
	clk := clock.Fake(time.Date(2025, 5, 30, 21, 0, 0, 0, time.UTC))
	return New(st, []int64{admin}, events, clk, zap.NewNop()), events
}

func newSchedule() *store.Schedule {
	return store.NewSchedule(store.NewMemory(), domain.DefaultStart)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		invalid bool
	}{
		{in: "list", want: Command{Kind: KindList}},
		{in: "  help  ", want: Command{Kind: KindHelp}},
		{in: "exclude 2025-01-01", want: Command{Kind: KindExclude, Date: "2025-01-01"}},
		{in: "unexclude 2025-01-01", want: Command{Kind: KindUnexclude, Date: "2025-01-01"}},
		{in: "override 2025-06-01 7:30", want: Command{Kind: KindOverride, Date: "2025-06-01", Time: domain.ClockTime{Hour: 7, Minute: 30}}},
		{in: "override 2025-06-01 9", want: Command{Kind: KindOverride, Date: "2025-06-01", Time: domain.ClockTime{Hour: 9}}},
		{in: "unoverride 2025-06-01", want: Command{Kind: KindUnoverride, Date: "2025-06-01"}},
		{in: "good morning", want: Command{}},
		{in: "List", want: Command{}},
		{in: "", want: Command{}},
		{in: "list extra", invalid: true},
		{in: "exclude", invalid: true},
		{in: "exclude 2025-02-30", invalid: true},
		{in: "override 2025-6-1 9", invalid: true},
		{in: "override 2025-06-01", invalid: true},
		{in: "override 2025-06-01 25:00", invalid: true},
		{in: "override 2025-06-01 7:5", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.invalid {
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnauthorizedLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	st := newSchedule()
	in, events := newInterpreter(t, st)

	res := in.Handle(ctx, stranger, "exclude 2025-01-01")
	assert.Equal(t, OutcomeUnauthorized, res.Outcome)
	assert.Equal(t, refusalText, res.Reply)
	assert.ErrorIs(t, res.Err, domain.ErrUnauthorized)

	l, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, l.Exclusions)

	got, err := events.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, store.EventCommand, got[0].Type)
	assert.Equal(t, stranger, got[0].UserID)
	assert.Equal(t, "unauthorized: exclude 2025-01-01", got[0].Message)
}

func TestInvalidDateLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	st := newSchedule()
	in, _ := newInterpreter(t, st)

	res := in.Handle(ctx, admin, "override 2025-6-1 9")
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.True(t, domain.IsValidation(res.Err))
	assert.Contains(t, res.Reply, "2025-6-1")

	l, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, l.Overrides)
}

func TestArityErrorShowsUsage(t *testing.T) {
	in, _ := newInterpreter(t, newSchedule())
	res := in.Handle(context.Background(), admin, "override 2025-06-01")
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Contains(t, res.Reply, usage[KindOverride])
}

func TestOverrideAndList(t *testing.T) {
	ctx := context.Background()
	st := newSchedule()
	in, _ := newInterpreter(t, st)

	res := in.Handle(ctx, admin, "override 2025-06-01 7:30")
	require.Equal(t, OutcomeOK, res.Outcome, res.Reply)
	assert.Equal(t, "Wakeup on 2025-06-01 set to 07:30.", res.Reply)

	got, err := st.ResolveStartTime(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, domain.ClockTime{Hour: 7, Minute: 30}, got)

	require.Equal(t, OutcomeOK, in.Handle(ctx, admin, "exclude 2025-06-02").Outcome)
	require.Equal(t, OutcomeOK, in.Handle(ctx, admin, "exclude 2025-01-01").Outcome)

	res = in.Handle(ctx, admin, "list")
	require.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, "📅 Exclusions:\n"+
		"  • 2025-01-01\n"+
		"  • 2025-06-02\n"+
		"⏰ Overrides:\n"+
		"  • 2025-06-01 → 07:30", res.Reply)
}

func TestUndoCommands(t *testing.T) {
	ctx := context.Background()
	st := newSchedule()
	in, _ := newInterpreter(t, st)

	for _, text := range []string{
		"exclude 2025-06-02",
		"unexclude 2025-06-02",
		"override 2025-06-03 6",
		"unoverride 2025-06-03",
		"unoverride 2025-06-03",
	} {
		res := in.Handle(ctx, admin, text)
		require.Equal(t, OutcomeOK, res.Outcome, text)
	}

	res := in.Handle(ctx, admin, "list")
	assert.Equal(t, "📅 Exclusions:\n  (none)\n⏰ Overrides:\n  (none)", res.Reply)
}

func TestHelpAndUnrecognized(t *testing.T) {
	ctx := context.Background()
	in, events := newInterpreter(t, newSchedule())

	assert.Equal(t, helpText, in.Handle(ctx, admin, "help").Reply)

	res := in.Handle(ctx, admin, "おはよう")
	assert.Equal(t, OutcomeUnrecognized, res.Outcome)
	assert.Empty(t, res.Reply)
	assert.NoError(t, res.Err)

	got, err := events.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unrecognized: おはよう", got[0].Message)
}

func TestStorageFailureReply(t *testing.T) {
	ctx := context.Background()
	in, _ := newInterpreter(t, brokenStore{})

	res := in.Handle(ctx, admin, "exclude 2025-06-02")
	assert.Equal(t, OutcomeStorageError, res.Outcome)
	assert.Equal(t, storageText, res.Reply)

	res = in.Handle(ctx, admin, "list")
	assert.Equal(t, OutcomeStorageError, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrStorage)
}

func TestIsAdmin(t *testing.T) {
	in, _ := newInterpreter(t, newSchedule())
	assert.True(t, in.IsAdmin(admin))
	assert.False(t, in.IsAdmin(stranger))
}
