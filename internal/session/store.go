// Package session persists the single in-progress track log. One slot,
// full-snapshot overwrites: last writer wins, no read-modify-write.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/icalado/geo-snap-pro/internal/track"
)

const slotKey = "current"

// Store is the durable local cache for the active TrackLog. It survives
// process restarts; the recording engine reads it back on construction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS session_slot (
			key  TEXT PRIMARY KEY,
			body TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create session slot: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the persisted log, or nil when the slot is empty.
func (s *Store) Get(ctx context.Context) (*track.TrackLog, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM session_slot WHERE key = ?`, slotKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var log track.TrackLog
	if err := json.Unmarshal([]byte(body), &log); err != nil {
		return nil, fmt.Errorf("decode session slot: %w", err)
	}
	return &log, nil
}

// Put overwrites the slot with a full snapshot; nil clears it.
func (s *Store) Put(ctx context.Context, log *track.TrackLog) error {
	if log == nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM session_slot WHERE key = ?`, slotKey)
		return err
	}

	body, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode session slot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_slot (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body
	`, slotKey, string(body))
	return err
}
