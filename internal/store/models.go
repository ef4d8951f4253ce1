package store

import (
	"database/sql"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// overrideToNull splits an optional override into nullable columns.
func overrideToNull(t *domain.ClockTime) (hour, minute sql.NullInt64) {
	if t == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(t.Hour), Valid: true},
		sql.NullInt64{Int64: int64(t.Minute), Valid: true}
}

// overrideFromNull is the inverse of overrideToNull. A missing minute is
// read as :00.
func overrideFromNull(hour, minute sql.NullInt64) *domain.ClockTime {
	if !hour.Valid {
		return nil
	}
	t := domain.ClockTime{Hour: int(hour.Int64)}
	if minute.Valid {
		t.Minute = int(minute.Int64)
	}
	return &t
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
