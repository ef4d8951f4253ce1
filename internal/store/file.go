package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

// fileDoc is the on-disk layout: one record per date.
type fileDoc struct {
	Entries map[string]fileEntry `json:"entries" yaml:"entries"`
}

type fileEntry struct {
	Excluded       bool `json:"excluded" yaml:"excluded"`
	OverrideHour   *int `json:"override_hour" yaml:"override_hour"`
	OverrideMinute *int `json:"override_minute" yaml:"override_minute"`
}

// FileBackend persists the whole schedule as one JSON or YAML document.
// Every Put rewrites the file via a temp file and rename, then updates
// the in-memory copy.
//
// Several processes may share one file (the server and the schedule
// CLI). Put re-reads the document under an advisory lock on path.lock
// before applying its change, and reads reload whenever the file on disk
// differs from the one last loaded.
type FileBackend struct {
	path    string
	useYAML bool

	mu      sync.Mutex
	entries map[string]domain.ScheduleEntry
	seen    os.FileInfo // nil while the file does not exist
}

// OpenFile loads path if it exists. Paths ending in .yaml or .yml use
// YAML; anything else JSON.
func OpenFile(path string) (*FileBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f := &FileBackend{
		path:    path,
		useYAML: ext == ".yaml" || ext == ".yml",
		entries: make(map[string]domain.ScheduleEntry),
	}
	if err := f.refreshLocked(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) Get(_ context.Context, date string) (domain.ScheduleEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refreshLocked(); err != nil {
		return domain.ScheduleEntry{}, false, err
	}
	e, ok := f.entries[date]
	return cloneEntry(e), ok, nil
}

func (f *FileBackend) All(_ context.Context) ([]domain.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.refreshLocked(); err != nil {
		return nil, err
	}
	out := make([]domain.ScheduleEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func (f *FileBackend) Put(_ context.Context, e domain.ScheduleEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	unlock, err := lockFile(f.path + ".lock")
	if err != nil {
		return fmt.Errorf("lock schedule file: %w", err)
	}
	defer unlock()

	// Start from what is on disk, not from our copy: another process may
	// have written since we last looked.
	next, err := f.load()
	if err != nil {
		return err
	}
	next[e.Date] = cloneEntry(e)
	if err := f.write(next); err != nil {
		return err
	}
	fi, err := os.Stat(f.path)
	if err != nil {
		return err
	}
	f.entries, f.seen = next, fi
	return nil
}

// refreshLocked reloads the document if the file changed since it was
// last loaded. Caller holds f.mu.
func (f *FileBackend) refreshLocked() error {
	fi, err := os.Stat(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat schedule file: %w", err)
	}
	if err != nil {
		fi = nil
	}
	if sameFile(f.seen, fi) {
		return nil
	}
	entries, err := f.load()
	if err != nil {
		return err
	}
	f.entries, f.seen = entries, fi
	return nil
}

// sameFile reports whether a and b describe the same unchanged file. A
// rename gives the path a new inode, so SameFile alone catches most
// rewrites; mtime and size cover inode reuse.
func sameFile(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return os.SameFile(a, b) && a.ModTime().Equal(b.ModTime()) && a.Size() == b.Size()
}

// load parses the document on disk. A missing file is an empty schedule.
func (f *FileBackend) load() (map[string]domain.ScheduleEntry, error) {
	entries := make(map[string]domain.ScheduleEntry)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read schedule file: %w", err)
	}
	var doc fileDoc
	if f.useYAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse schedule file: %w", err)
	}
	for date, fe := range doc.Entries {
		if _, err := domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("schedule file: %w", err)
		}
		entries[date] = fe.toEntry(date)
	}
	return entries, nil
}

func (f *FileBackend) Close() error { return nil }

func (f *FileBackend) write(entries map[string]domain.ScheduleEntry) error {
	doc := fileDoc{Entries: make(map[string]fileEntry, len(entries))}
	for date, e := range entries {
		doc.Entries[date] = toFileEntry(e)
	}
	var (
		data []byte
		err  error
	)
	if f.useYAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func writeSynced(path string, data []byte) error {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := fh.Write(data); err != nil {
		_ = fh.Close()
		return err
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func toFileEntry(e domain.ScheduleEntry) fileEntry {
	fe := fileEntry{Excluded: e.Excluded}
	if e.Override != nil {
		h, m := e.Override.Hour, e.Override.Minute
		fe.OverrideHour, fe.OverrideMinute = &h, &m
	}
	return fe
}

func (fe fileEntry) toEntry(date string) domain.ScheduleEntry {
	e := domain.ScheduleEntry{Date: date, Excluded: fe.Excluded}
	if fe.OverrideHour != nil {
		m := 0
		if fe.OverrideMinute != nil {
			m = *fe.OverrideMinute
		}
		e.Override = &domain.ClockTime{Hour: *fe.OverrideHour, Minute: m}
	}
	return e
}
