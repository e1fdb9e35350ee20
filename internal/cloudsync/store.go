package cloudsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/icalado/geo-snap-pro/internal/db"
	"github.com/icalado/geo-snap-pro/internal/track"
)

// Store is the remote track store: one upsert keyed by the remote id the
// first create handed back.
type Store interface {
	Upsert(ctx context.Context, remoteID string, snap track.Snapshot) (string, error)
}

// PGStore writes full snapshots into the hosted Postgres. Points and
// photos land as JSONB documents, not per-row inserts: the payload is
// the whole log every time, so the newest push always supersedes.
type PGStore struct {
	db db.Querier
}

func NewPGStore(q db.Querier) *PGStore {
	return &PGStore{db: q}
}

func (s *PGStore) Upsert(ctx context.Context, remoteID string, snap track.Snapshot) (string, error) {
	points, err := json.Marshal(snap.Points)
	if err != nil {
		return "", fmt.Errorf("encode points: %w", err)
	}
	photos, err := json.Marshal(snap.Photos)
	if err != nil {
		return "", fmt.Errorf("encode photos: %w", err)
	}

	if remoteID == "" {
		row := s.db.QueryRow(ctx, `
			INSERT INTO track_logs (user_id, project_id, track_id, started_at, ended_at, points, photos, point_count, photo_count, distance_m)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id
		`, snap.UserID, snap.ProjectID, snap.TrackID, snap.StartedAt, snap.EndedAt,
			points, photos, snap.Stats.PointCount, snap.Stats.PhotoCount, snap.Stats.DistanceM)
		var id string
		if err := row.Scan(&id); err != nil {
			return "", err
		}
		return id, nil
	}

	_, err = s.db.Exec(ctx, `
		UPDATE track_logs
		SET project_id=$2, ended_at=$3, points=$4, photos=$5,
		    point_count=$6, photo_count=$7, distance_m=$8, updated_at=now()
		WHERE id=$1
	`, remoteID, snap.ProjectID, snap.EndedAt, points, photos,
		snap.Stats.PointCount, snap.Stats.PhotoCount, snap.Stats.DistanceM)
	if err != nil {
		return "", err
	}
	return remoteID, nil
}
