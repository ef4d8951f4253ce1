package session

import (
	"fmt"
	"time"
)

func promptText(n int) string {
	if n == 1 {
		return "☀️ Good morning! Time to get up. Reply to this message so I know you're awake."
	}
	return fmt.Sprintf("⏰ Still there? Reminder #%d. Reply with anything to confirm you're awake.", n)
}

func respondedText(name string, elapsed time.Duration) string {
	return fmt.Sprintf("✅ %s is awake (replied after %s).", name, elapsed)
}

func escalationText(name string, deadline time.Duration) string {
	return fmt.Sprintf("🚨 %s has not replied for %s. Please check on them.", name, deadline)
}
