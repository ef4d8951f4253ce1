package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// SQLiteBackend stores one row per date in the schedule table and
// implements EventLog over event_log.
type SQLiteBackend struct{ db *sql.DB }

var (
	_ Backend  = (*SQLiteBackend)(nil)
	_ EventLog = (*SQLiteBackend)(nil)
)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies PRAGMAs and runs the embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// applyPragmas configures the connection. synchronous=FULL makes every
// committed mutation survive a crash right after the call returns.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteBackend) Name() string { return "sqlite" }

// Close releases the underlying database resources.
func (r *SQLiteBackend) Close() error {
	return r.db.Close()
}

func (r *SQLiteBackend) Get(ctx context.Context, date string) (domain.ScheduleEntry, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT date, excluded, override_hour, override_minute
		FROM schedule
		WHERE date = ?`,
		date,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduleEntry{}, false, nil
	}
	if err != nil {
		return domain.ScheduleEntry{}, false, err
	}
	return e, true, nil
}

// Put inserts or updates the row for e.Date.
func (r *SQLiteBackend) Put(ctx context.Context, e domain.ScheduleEntry) error {
	hour, minute := overrideToNull(e.Override)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedule (date, excluded, override_hour, override_minute, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			excluded        = excluded.excluded,
			override_hour   = excluded.override_hour,
			override_minute = excluded.override_minute,
			updated_at      = excluded.updated_at`,
		e.Date, boolToInt(e.Excluded), hour, minute, time.Now().UTC().Unix(),
	)
	return err
}

// All returns every row ordered by date.
func (r *SQLiteBackend) All(ctx context.Context) ([]domain.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, excluded, override_hour, override_minute
		FROM schedule
		ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (domain.ScheduleEntry, error) {
	var (
		date        string
		excludedInt int
		hour        sql.NullInt64
		minute      sql.NullInt64
	)
	if err := s.Scan(&date, &excludedInt, &hour, &minute); err != nil {
		return domain.ScheduleEntry{}, err
	}
	return domain.ScheduleEntry{
		Date:     date,
		Excluded: excludedInt != 0,
		Override: overrideFromNull(hour, minute),
	}, nil
}

// Append records one event.
func (r *SQLiteBackend) Append(ctx context.Context, e LogEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO event_log (ts, event_type, user_id, message)
		VALUES (?, ?, ?, ?)`,
		e.Time.UTC().UnixMilli(), e.Type, e.UserID, e.Message,
	)
	return err
}

// Recent returns up to n events, newest first.
func (r *SQLiteBackend) Recent(ctx context.Context, n int) ([]LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, event_type, user_id, message
		FROM event_log
		ORDER BY id DESC
		LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []LogEntry
	for rows.Next() {
		var (
			ts int64
			e  LogEntry
		)
		if err := rows.Scan(&ts, &e.Type, &e.UserID, &e.Message); err != nil {
			return nil, err
		}
		e.Time = time.UnixMilli(ts).UTC()
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
