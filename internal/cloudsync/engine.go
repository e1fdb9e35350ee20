// Package cloudsync makes the local track log eventually visible in the
// remote store: debounced full-snapshot pushes, an upsert protocol that
// creates once and updates ever after, and drop-on-failure semantics
// (the next push always supersedes a lost one).
package cloudsync

import (
	"context"
	"log"
	"time"

	"github.com/icalado/geo-snap-pro/internal/outbox"
	"github.com/icalado/geo-snap-pro/internal/shared/geo"
	"github.com/icalado/geo-snap-pro/internal/track"
)

// SyncSource hands the engine the current log and accepts the remote id
// assigned by the first successful create. The recording engine
// implements it; SetRemoteID must also persist the id locally.
type SyncSource interface {
	SyncSnapshot() *track.TrackLog
	SetRemoteID(id string)
}

type Engine struct {
	store  Store
	source SyncSource
	userID string

	debouncer *outbox.Debouncer
	gate      outbox.Gate
}

// NewEngine wires the debounced pusher. quiet is the coalescing window;
// the empirical default is 5 seconds.
func NewEngine(store Store, source SyncSource, userID string, quiet time.Duration) *Engine {
	e := &Engine{store: store, source: source, userID: userID}
	e.debouncer = outbox.NewDebouncer(quiet, e.push)
	return e
}

// Attach sets the snapshot source after construction. The engine and
// the recording engine reference each other, so one side wires late.
func (e *Engine) Attach(source SyncSource) {
	e.source = source
}

// Schedule arms the quiet-period timer; bursts of position appends
// coalesce into one network call.
func (e *Engine) Schedule() {
	e.debouncer.Schedule()
}

// SyncNow cancels any pending timer and pushes immediately. Stop and
// photo markers use this path; it also backs the manual force-sync.
func (e *Engine) SyncNow() {
	e.debouncer.Flush()
}

// Cancel drops the pending timer without pushing (session cleared).
func (e *Engine) Cancel() {
	e.debouncer.Cancel()
}

// InProgress reports whether a push is currently in flight.
func (e *Engine) InProgress() bool {
	return e.gate.Busy()
}

// BuildSnapshot derives the full-state payload, recomputing stats from
// scratch each time.
func BuildSnapshot(userID string, l *track.TrackLog) track.Snapshot {
	return track.Snapshot{
		UserID:    userID,
		ProjectID: l.ProjectID,
		TrackID:   l.ID,
		StartedAt: l.StartedAt,
		EndedAt:   l.EndedAt,
		Points:    l.Points,
		Photos:    l.Photos,
		Stats: track.Stats{
			PointCount: len(l.Points),
			PhotoCount: len(l.Photos),
			DistanceM:  geo.PathDistanceM(l.Points),
		},
	}
}

func (e *Engine) push() {
	if !e.gate.TryEnter() {
		// A push is in flight; the newer mutation reschedules so it is
		// not lost, and its snapshot supersedes this one.
		e.debouncer.Schedule()
		return
	}
	defer e.gate.Leave()

	if e.store == nil || e.source == nil {
		// No remote configured; local persistence still has everything.
		return
	}

	l := e.source.SyncSnapshot()
	if l == nil {
		return
	}

	remoteID := l.RemoteID
	id, err := e.store.Upsert(context.Background(), remoteID, BuildSnapshot(e.userID, l))
	if err != nil {
		// Dropped, not retried: the next scheduled or forced push sends
		// the full current snapshot.
		log.Printf("[cloudsync] push failed for track %s: %v", l.ID, err)
		return
	}
	if remoteID == "" {
		e.source.SetRemoteID(id)
	}
}
