package command

import (
	"strings"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// Kind identifies a command keyword.
type Kind string

const (
	KindUnknown    Kind = ""
	KindList       Kind = "list"
	KindHelp       Kind = "help"
	KindExclude    Kind = "exclude"
	KindUnexclude  Kind = "unexclude"
	KindOverride   Kind = "override"
	KindUnoverride Kind = "unoverride"
)

// Command is one parsed admin message.
type Command struct {
	Kind Kind
	Date string           // exclude, unexclude, override, unoverride
	Time domain.ClockTime // override
}

// Mutates reports whether k changes the schedule.
func (k Kind) Mutates() bool {
	switch k {
	case KindExclude, KindUnexclude, KindOverride, KindUnoverride:
		return true
	}
	return false
}

var usage = map[Kind]string{
	KindList:       "list",
	KindHelp:       "help",
	KindExclude:    "exclude YYYY-MM-DD",
	KindUnexclude:  "unexclude YYYY-MM-DD",
	KindOverride:   "override YYYY-MM-DD H[:MM]",
	KindUnoverride: "unoverride YYYY-MM-DD",
}

// Parse splits text on whitespace and matches the first token against the
// keywords (case-sensitive). Unknown keywords yield KindUnknown and no
// error. Bad arguments to a known keyword yield a *domain.ValidationError.
func Parse(text string) (Command, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Command{}, nil
	}
	kind := Kind(tokens[0])
	if _, ok := usage[kind]; !ok {
		return Command{}, nil
	}
	args := tokens[1:]

	switch kind {
	case KindList, KindHelp:
		if len(args) != 0 {
			return Command{}, usageError(kind)
		}
		return Command{Kind: kind}, nil

	case KindExclude, KindUnexclude, KindUnoverride:
		if len(args) != 1 {
			return Command{}, usageError(kind)
		}
		date, err := domain.ParseDate(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Date: date}, nil

	case KindOverride:
		if len(args) != 2 {
			return Command{}, usageError(kind)
		}
		date, err := domain.ParseDate(args[0])
		if err != nil {
			return Command{}, err
		}
		t, err := domain.ParseClockTime(args[1])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: kind, Date: date, Time: t}, nil
	}
	return Command{}, nil
}

func usageError(k Kind) error {
	return &domain.ValidationError{Field: "arguments", Message: "usage: " + usage[k]}
}
