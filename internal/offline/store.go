package offline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/icalado/geo-snap-pro/internal/track"
)

// PendingStore is the durable queue of captured-but-unsent photos.
// Items are listed in arrival order and removed only after both the
// blob upload and the record insert succeed.
type PendingStore struct {
	db *sql.DB
}

func NewPendingStore(db *sql.DB) (*PendingStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_photos (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			project_id  TEXT NOT NULL,
			image       BLOB NOT NULL,
			lat         REAL NOT NULL,
			lon         REAL NOT NULL,
			accuracy_m  REAL,
			altitude_m  REAL,
			note        TEXT NOT NULL DEFAULT '',
			taken_at    INTEGER NOT NULL,
			queued_at   INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create pending photos: %w", err)
	}
	return &PendingStore{db: db}, nil
}

func (s *PendingStore) Add(ctx context.Context, p track.PendingPhoto) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_photos (id, user_id, project_id, image, lat, lon, accuracy_m, altitude_m, note, taken_at, queued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.ProjectID, p.Image, p.Lat, p.Lon, p.AccuracyM, p.AltitudeM, p.Note, p.TakenAt, p.QueuedAt)
	return err
}

func (s *PendingStore) ListAll(ctx context.Context) ([]track.PendingPhoto, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, project_id, image, lat, lon, accuracy_m, altitude_m, note, taken_at, queued_at
		FROM pending_photos
		ORDER BY queued_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []track.PendingPhoto
	for rows.Next() {
		var p track.PendingPhoto
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProjectID, &p.Image, &p.Lat, &p.Lon,
			&p.AccuracyM, &p.AltitudeM, &p.Note, &p.TakenAt, &p.QueuedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *PendingStore) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_photos WHERE id = ?`, id)
	return err
}

func (s *PendingStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_photos`)
	return err
}

func (s *PendingStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_photos`).Scan(&n)
	return n, err
}
