package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

const (
	refusalText = "Sorry, only admins can change the wakeup schedule."
	storageText = "Could not save the change. Please try again later."
	helpText    = "🛠 Commands:\n" +
		"• list: show exclusions and overrides\n" +
		"• exclude YYYY-MM-DD: no wakeup that day\n" +
		"• unexclude YYYY-MM-DD: undo exclude\n" +
		"• override YYYY-MM-DD H[:MM]: wake at another time that day\n" +
		"• unoverride YYYY-MM-DD: back to the default time\n" +
		"• help: this text"
)

func formatListing(l domain.Listing) string {
	var b strings.Builder
	b.WriteString("📅 Exclusions:\n")
	if len(l.Exclusions) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, d := range l.Exclusions {
		b.WriteString("  • " + d + "\n")
	}
	b.WriteString("⏰ Overrides:\n")
	dates := l.OverrideDates()
	if len(dates) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, d := range dates {
		fmt.Fprintf(&b, "  • %s → %s\n", d, l.Overrides[d])
	}
	return strings.TrimRight(b.String(), "\n")
}

func invalidText(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		if ve.Value == "" {
			return "⚠️ " + ve.Message
		}
		return fmt.Sprintf("⚠️ Invalid %s %q: %s", ve.Field, ve.Value, ve.Message)
	}
	return "⚠️ " + err.Error()
}

func confirmText(c Command) string {
	switch c.Kind {
	case KindExclude:
		return fmt.Sprintf("Excluded %s: no wakeup that day.", c.Date)
	case KindUnexclude:
		return fmt.Sprintf("%s is no longer excluded.", c.Date)
	case KindOverride:
		return fmt.Sprintf("Wakeup on %s set to %s.", c.Date, c.Time)
	case KindUnoverride:
		return fmt.Sprintf("Override for %s removed.", c.Date)
	}
	return ""
}
