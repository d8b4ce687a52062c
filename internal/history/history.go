// Package history keeps a SQLite log of coffee announcements.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/sweeney/dripbot/internal/logic"
)

// Entry is one announcement attempt.
type Entry struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Event  string    `json:"event"`
	Phrase string    `json:"phrase"`
	Sent   bool      `json:"sent"`
	Error  string    `json:"error,omitempty"`
}

// Store records and lists announcements.
type Store interface {
	Record(ctx context.Context, e Entry) (Entry, error)
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS announcements (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		event      TEXT NOT NULL,
		phrase     TEXT NOT NULL,
		sent       INTEGER NOT NULL,
		error      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_announcements_created ON announcements(created_at DESC);
	`)
	return err
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Record stores e, assigning an ID and a timestamp when they are unset.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.Time = e.Time.UTC()
	if e.ID == "" {
		e.ID = s.newID(e.Time)
	}

	var errText sql.NullString
	if e.Error != "" {
		errText = sql.NullString{String: e.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (id, created_at, event, phrase, sent, error) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.Format(time.RFC3339Nano), e.Event, e.Phrase, e.Sent, errText)
	if err != nil {
		return Entry{}, fmt.Errorf("insert announcement: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, event, phrase, sent, error FROM announcements ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query announcements: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created string
			errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &created, &e.Event, &e.Phrase, &e.Sent, &errText); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		e.Time, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		e.Error = errText.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Recorder writes announcement events to a Store. It satisfies logic.Observer.
type Recorder struct {
	store   Store
	timeout time.Duration
}

// NewRecorder returns a Recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, timeout: 5 * time.Second}
}

// BrewEvent records FRESH and ANNOUNCE_FAILED events. Failures are logged.
func (r *Recorder) BrewEvent(e logic.Event) {
	if e.Type != logic.EventFresh && e.Type != logic.EventAnnounceFailed {
		return
	}

	entry := Entry{
		Time:   e.Timestamp,
		Event:  string(e.Type),
		Phrase: e.Phrase,
		Sent:   e.Type == logic.EventFresh,
	}
	if e.Err != nil {
		entry.Error = e.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.store.Record(ctx, entry); err != nil {
		slog.Error("history record failed", "event", e.Type, "err", err)
	}
}
