package track

// TrackPoint is one GPS sample. Immutable once appended; slice order is
// chronological because samples only ever append.
type TrackPoint struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	T         int64    `json:"t"` // epoch millis
	AltitudeM *float64 `json:"altitude_m,omitempty"`
	AccuracyM *float64 `json:"accuracy_m,omitempty"`
}

// PhotoMarker anchors an uploaded photo to a location on the track.
type PhotoMarker struct {
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	URL  string  `json:"url"`
	T    int64   `json:"t"` // epoch millis
	Note string  `json:"note,omitempty"`
}

// TrackLog is the aggregate root of one recording session.
//
// Invariants: at most one open log (EndedAt == 0) exists locally;
// EndedAt, once set, is never unset; Points and Photos only grow;
// RemoteID is assigned once by the first successful sync and never
// changes afterwards.
type TrackLog struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id,omitempty"`
	StartedAt int64         `json:"started_at"` // epoch millis
	EndedAt   int64         `json:"ended_at,omitempty"`
	Points    []TrackPoint  `json:"points"`
	Photos    []PhotoMarker `json:"photos"`
	RemoteID  string        `json:"remote_id,omitempty"`
}

// Open reports whether the session is still recording-eligible.
func (l *TrackLog) Open() bool {
	return l != nil && l.EndedAt == 0
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the engine's single-writer slices.
func (l *TrackLog) Clone() *TrackLog {
	if l == nil {
		return nil
	}
	out := *l
	out.Points = append([]TrackPoint(nil), l.Points...)
	out.Photos = append([]PhotoMarker(nil), l.Photos...)
	return &out
}

// PendingPhoto is a captured-but-unsent photo awaiting upload.
type PendingPhoto struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	ProjectID string   `json:"project_id"`
	Image     []byte   `json:"image"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	AccuracyM *float64 `json:"accuracy_m,omitempty"`
	AltitudeM *float64 `json:"altitude_m,omitempty"`
	Note      string   `json:"note,omitempty"`
	TakenAt   int64    `json:"taken_at"`  // epoch millis, capture time
	QueuedAt  int64    `json:"queued_at"` // epoch millis, local enqueue time
}

// Stats are derived per push and stored alongside the snapshot.
type Stats struct {
	PointCount int     `json:"point_count"`
	PhotoCount int     `json:"photo_count"`
	DistanceM  float64 `json:"distance_m"`
}

// Snapshot is the full-state payload sent to the remote track store.
// Always the whole log, never a delta: a dropped push is superseded by
// the next one as long as the local copy survives.
type Snapshot struct {
	UserID    string        `json:"user_id"`
	ProjectID string        `json:"project_id,omitempty"`
	TrackID   string        `json:"track_id"`
	StartedAt int64         `json:"started_at"`
	EndedAt   int64         `json:"ended_at,omitempty"`
	Points    []TrackPoint  `json:"points"`
	Photos    []PhotoMarker `json:"photos"`
	Stats     Stats         `json:"stats"`
}
