package eventsource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists event streams in a single sqlite database. Appends
// run inside a transaction so the version check and the inserts are atomic.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) a journal database.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventsource: open database: %w", err)
	}
	// The sqlite driver serializes access through a single connection;
	// concurrent appends would otherwise race on the version check.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventsource: migrate: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		stream_id TEXT NOT NULL,
		type TEXT NOT NULL,
		version INTEGER NOT NULL,
		data BLOB,
		timestamp TEXT NOT NULL,
		UNIQUE (stream_id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_events_stream ON events(stream_id, version);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, streamID string, expectedVersion int, events []*Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return -1, fmt.Errorf("eventsource: begin: %w", err)
	}
	defer tx.Rollback()

	head, err := streamHead(ctx, tx, streamID)
	if err != nil {
		return -1, err
	}
	if head != expectedVersion {
		return head, ErrConcurrencyConflict
	}

	for _, e := range events {
		head++
		e.StreamID = streamID
		e.Version = head
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, stream_id, type, version, data, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.StreamID, e.Type, e.Version, []byte(e.Data),
			e.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return -1, fmt.Errorf("eventsource: insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return -1, fmt.Errorf("eventsource: commit: %w", err)
	}
	return head, nil
}

// Read implements Store.
func (s *SQLiteStore) Read(ctx context.Context, streamID string, fromVersion int) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stream_id, type, version, data, timestamp FROM events
		 WHERE stream_id = ? AND version >= ? ORDER BY version`,
		streamID, fromVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("eventsource: read stream: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadAll implements Store.
func (s *SQLiteStore) ReadAll(ctx context.Context, filter EventFilter) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stream_id, type, version, data, timestamp FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("eventsource: read all: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	var result []*Event
	for _, e := range events {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

// StreamVersion implements Store.
func (s *SQLiteStore) StreamVersion(ctx context.Context, streamID string) (int, error) {
	return streamHead(ctx, s.db, streamID)
}

// DeleteStream implements Store.
func (s *SQLiteStore) DeleteStream(ctx context.Context, streamID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE stream_id = ?`, streamID)
	if err != nil {
		return fmt.Errorf("eventsource: delete stream: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func streamHead(ctx context.Context, q querier, streamID string) (int, error) {
	var head sql.NullInt64
	err := q.QueryRowContext(ctx,
		`SELECT MAX(version) FROM events WHERE stream_id = ?`, streamID,
	).Scan(&head)
	if err != nil {
		return -1, fmt.Errorf("eventsource: stream head: %w", err)
	}
	if !head.Valid {
		return -1, nil
	}
	return int(head.Int64), nil
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		var (
			e  Event
			ts string
		)
		if err := rows.Scan(&e.ID, &e.StreamID, &e.Type, &e.Version, (*[]byte)(&e.Data), &ts); err != nil {
			return nil, fmt.Errorf("eventsource: scan event: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("eventsource: parse timestamp: %w", err)
		}
		e.Timestamp = parsed
		events = append(events, &e)
	}
	return events, rows.Err()
}
