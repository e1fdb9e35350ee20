// Package recorder owns the lifecycle of the active track log and the
// live position feed. It is the single writer of the log; the cloud sync
// engine only ever attaches the remote identifier through SetRemoteID.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icalado/geo-snap-pro/internal/geoloc"
	"github.com/icalado/geo-snap-pro/internal/session"
	"github.com/icalado/geo-snap-pro/internal/stream"
	"github.com/icalado/geo-snap-pro/internal/track"
	"github.com/icalado/geo-snap-pro/internal/wakelock"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrNoActiveLog      = errors.New("no active track log")
)

// Syncer is the slice of the cloud sync engine the recorder drives.
type Syncer interface {
	Schedule()
	SyncNow()
	Cancel()
}

type Service struct {
	source   geoloc.Source
	sessions *session.Store
	lock     wakelock.Coordinator
	hub      *stream.Hub
	sync     Syncer

	mu          sync.Mutex
	log         *track.TrackLog
	recording   bool
	recovered   bool
	current     *geoloc.Sample
	lastErr     error
	cancelWatch context.CancelFunc

	nowFn func() int64
}

// NewService builds the engine and attempts recovery: an open log with at
// least one point in the session store becomes the active log, flagged as
// recovered, WITHOUT re-subscribing geolocation. The caller must Start to
// resume live capture.
func NewService(source geoloc.Source, sessions *session.Store, lock wakelock.Coordinator, hub *stream.Hub, syncer Syncer) *Service {
	s := &Service{
		source:   source,
		sessions: sessions,
		lock:     lock,
		hub:      hub,
		sync:     syncer,
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
	if lock == nil {
		s.lock = wakelock.Nop{}
	}

	persisted, err := sessions.Get(context.Background())
	if err != nil {
		log.Printf("[recorder] session recovery read failed: %v", err)
		return s
	}
	if persisted.Open() && len(persisted.Points) > 0 {
		s.log = persisted
		s.recovered = true
		log.Printf("[recorder] recovered open session %s with %d points", persisted.ID, len(persisted.Points))
	}
	return s
}

// Start begins (or resumes) live capture. It fails fast when no position
// provider exists, persists the log before returning, and treats the wake
// lock as best-effort.
func (s *Service) Start(ctx context.Context, projectID string) error {
	if s.source == nil {
		return geoloc.ErrUnsupported
	}

	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}

	if !s.log.Open() {
		s.log = &track.TrackLog{
			ID:        uuid.NewString(),
			StartedAt: s.nowFn(),
			Points:    []track.TrackPoint{},
			Photos:    []track.PhotoMarker{},
		}
		s.recovered = false
	}
	if projectID != "" {
		s.log.ProjectID = projectID
	}
	s.persistLocked(ctx)

	if err := s.lock.Acquire(ctx); err != nil {
		log.Printf("[recorder] wake lock unavailable: %v", err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	samples, errs, err := s.source.Watch(watchCtx, geoloc.DefaultOptions())
	if err != nil {
		cancel()
		s.lock.Release()
		s.mu.Unlock()
		return err
	}

	s.cancelWatch = cancel
	s.recording = true
	s.mu.Unlock()

	go s.consume(samples, errs)
	return nil
}

func (s *Service) consume(samples <-chan geoloc.Sample, errs <-chan error) {
	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				return
			}
			s.onSample(sample)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.onStreamError(err)
		}
	}
}

func (s *Service) onSample(sample geoloc.Sample) {
	s.mu.Lock()
	// Current position updates on every sample regardless of recording
	// state transitions.
	copied := sample
	s.current = &copied

	appended := false
	var trackID string
	if s.recording && s.log.Open() {
		s.log.Points = append(s.log.Points, track.TrackPoint{
			Lat:       sample.Lat,
			Lon:       sample.Lon,
			T:         sample.T,
			AltitudeM: sample.AltitudeM,
			AccuracyM: sample.AccuracyM,
		})
		s.persistLocked(context.Background())
		appended = true
		trackID = s.log.ID
	}
	s.mu.Unlock()

	if appended {
		s.sync.Schedule()
		s.broadcast(trackID, sample)
	}
}

func (s *Service) onStreamError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	// Non-fatal: the stream keeps retrying, recording state is untouched.
	log.Printf("[recorder] position stream error: %v", err)
}

func (s *Service) broadcast(trackID string, sample geoloc.Sample) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(sample)
	if err != nil {
		return
	}
	s.hub.Broadcast(trackID, payload)
}

// Stop ends live capture: cancels the watch, releases the wake lock,
// stamps the end time, persists, then forces one immediate sync so the
// final state reaches the store even if the debounce never fired.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return ErrNotRecording
	}

	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
	s.lock.Release()
	s.recording = false
	s.recovered = false
	s.log.EndedAt = s.nowFn()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.sync.SyncNow()
	return nil
}

// MarkerInput is a photo capture to anchor on the active track.
type MarkerInput struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	URL  string  `json:"url"`
	T    int64   `json:"t"`
	Note string  `json:"note"`
}

// AddPhotoMarker appends a marker and forces an immediate sync: photos
// are higher-value than position samples and do not wait out the
// debounce window.
func (s *Service) AddPhotoMarker(ctx context.Context, in MarkerInput) (track.PhotoMarker, error) {
	s.mu.Lock()
	if !s.log.Open() {
		s.mu.Unlock()
		return track.PhotoMarker{}, ErrNoActiveLog
	}

	marker := track.PhotoMarker{
		ID:   uuid.NewString(),
		Lat:  in.Lat,
		Lon:  in.Lon,
		URL:  in.URL,
		T:    in.T,
		Note: in.Note,
	}
	if marker.T == 0 {
		marker.T = s.nowFn()
	}
	s.log.Photos = append(s.log.Photos, marker)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.sync.SyncNow()
	return marker, nil
}

// Clear discards the active log entirely: stops first when recording,
// cancels any pending sync, and wipes the persisted session slot.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	recording := s.recording
	s.mu.Unlock()
	if recording {
		if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrNotRecording) {
			return err
		}
	}

	s.sync.Cancel()

	s.mu.Lock()
	s.log = nil
	s.recovered = false
	s.mu.Unlock()

	if err := s.sessions.Put(ctx, nil); err != nil {
		log.Printf("[recorder] session wipe failed: %v", err)
	}
	return nil
}

// Reacquire re-arms the wake lock after the display regained visibility.
func (s *Service) Reacquire(ctx context.Context) {
	if err := s.lock.Acquire(ctx); err != nil {
		log.Printf("[recorder] wake lock re-acquire failed: %v", err)
	}
}

// persistLocked writes the full snapshot to the session slot.
// Best-effort: a storage failure never stops the in-memory session.
func (s *Service) persistLocked(ctx context.Context) {
	if err := s.sessions.Put(ctx, s.log); err != nil {
		log.Printf("[recorder] session persist failed: %v", err)
	}
}

// SyncSnapshot implements cloudsync.SyncSource.
func (s *Service) SyncSnapshot() *track.TrackLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Clone()
}

// SetRemoteID stores the identifier returned by the first successful
// create, in memory and in the session slot. Write-once.
func (s *Service) SetRemoteID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil || s.log.RemoteID != "" {
		return
	}
	s.log.RemoteID = id
	s.persistLocked(context.Background())
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return StatusRecording
	}
	return StatusIdle
}

// Current returns the latest observed position, recording or not.
func (s *Service) Current() *geoloc.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Snapshot returns a deep copy of the active (or retained closed) log.
func (s *Service) Snapshot() *track.TrackLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Clone()
}

// LastErr returns the retained last stream error.
func (s *Service) LastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Recovered reports whether the active log was restored from a previous
// interrupted session.
func (s *Service) Recovered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovered
}
