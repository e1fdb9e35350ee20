package offline

import (
	"context"

	"github.com/icalado/geo-snap-pro/internal/db"
	"github.com/icalado/geo-snap-pro/internal/track"
)

// RecordStore inserts the photo's database record once its binary has a
// public URL.
type RecordStore interface {
	InsertPhoto(ctx context.Context, p track.PendingPhoto, url string) error
}

// PGRecordStore writes photo records into the hosted Postgres.
type PGRecordStore struct {
	db db.Querier
}

func NewPGRecordStore(q db.Querier) *PGRecordStore {
	return &PGRecordStore{db: q}
}

func (s *PGRecordStore) InsertPhoto(ctx context.Context, p track.PendingPhoto, url string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO photos (id, user_id, project_id, url, lat, lon, accuracy_m, altitude_m, note, taken_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, p.ID, p.UserID, p.ProjectID, url, p.Lat, p.Lon, p.AccuracyM, p.AltitudeM, p.Note, p.TakenAt)
	return err
}
