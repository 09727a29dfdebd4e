// Package store keeps scraped MEP records as snapshots in a SQLite
// database, so reports can be regenerated from an earlier scrape.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leavex/mepsonx/internal/mep"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// timeLayout is fixed width so that taken_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	taken_at     TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT '',
	record_count INTEGER NOT NULL,
	records      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at);
`

// Snapshot is one saved set of MEP records.
type Snapshot struct {
	ID      string
	Taken   time.Time
	Source  string
	Records []mep.Record
}

// Summary describes a snapshot without its records.
type Summary struct {
	ID      string
	Taken   time.Time
	Source  string
	Records int
}

// Store is a snapshot database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores snap and returns its id. An empty ID is replaced by a new
// UUID and a zero Taken by the current time.
func (s *Store) Save(ctx context.Context, snap Snapshot) (string, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.Taken.IsZero() {
		snap.Taken = time.Now()
	}
	records := snap.Records
	if records == nil {
		records = []mep.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, taken_at, source, record_count, records) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Taken.UTC().Format(timeLayout), snap.Source, len(records), string(data))
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return snap.ID, nil
}

// Get returns the snapshot with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at, source, records FROM snapshots WHERE id = ?`, id)
	return scanSnapshot(row)
}

// Latest returns the most recently taken snapshot.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at, source, records FROM snapshots ORDER BY taken_at DESC, rowid DESC LIMIT 1`)
	return scanSnapshot(row)
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, source, record_count FROM snapshots ORDER BY taken_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var taken string
		if err := rows.Scan(&sum.ID, &taken, &sum.Source, &sum.Records); err != nil {
			return nil, fmt.Errorf("reading snapshot row: %w", err)
		}
		if sum.Taken, err = time.Parse(timeLayout, taken); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", sum.ID, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var snap Snapshot
	var taken, records string
	if err := row.Scan(&snap.ID, &taken, &snap.Source, &records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var err error
	if snap.Taken, err = time.Parse(timeLayout, taken); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	if snap.Records, err = mep.DecodeRecords([]byte(records)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}
