// Package offline guarantees a photo capture is never lost to missing
// connectivity: captures made while disconnected land in a durable local
// queue and replay against the remote store once online.
package offline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/icalado/geo-snap-pro/internal/blob"
	"github.com/icalado/geo-snap-pro/internal/outbox"
	"github.com/icalado/geo-snap-pro/internal/track"
)

// ErrRemoteUnavailable means the remote side is not configured; items
// stay queued until a restart provides one.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// OnlineChecker is the slice of the connectivity monitor the queue needs.
type OnlineChecker interface {
	Online() bool
}

// DrainReport counts one drain pass. Failed items stay queued for the
// next trigger; the queue never spins within a single pass.
type DrainReport struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Queue struct {
	store    *PendingStore
	uploader blob.Uploader
	records  RecordStore
	online   OnlineChecker

	gate outbox.Gate

	nowFn func() int64
}

func NewQueue(store *PendingStore, uploader blob.Uploader, records RecordStore, online OnlineChecker) *Queue {
	return &Queue{
		store:    store,
		uploader: uploader,
		records:  records,
		online:   online,
		nowFn:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Capture routes a new photo: straight to the remote store when online,
// into the durable queue when not. A direct send that fails is queued
// rather than lost.
func (q *Queue) Capture(ctx context.Context, p track.PendingPhoto) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.QueuedAt = q.nowFn()

	if q.online != nil && q.online.Online() {
		if err := q.send(ctx, p); err == nil {
			return nil
		} else {
			log.Printf("[offline] direct send failed, queueing %s: %v", p.ID, err)
		}
	}
	return q.store.Add(ctx, p)
}

// Drain processes the queue exactly once, in arrival order. Concurrent
// drains are refused; further retries wait for the next trigger.
func (q *Queue) Drain(ctx context.Context) (DrainReport, error) {
	if !q.gate.TryEnter() {
		return DrainReport{}, nil
	}
	defer q.gate.Leave()

	items, err := q.store.ListAll(ctx)
	if err != nil {
		return DrainReport{}, err
	}

	var report DrainReport
	for _, item := range items {
		if err := q.send(ctx, item); err != nil {
			log.Printf("[offline] replay failed for %s: %v", item.ID, err)
			report.Failed++
			continue
		}
		if err := q.store.Remove(ctx, item.ID); err != nil {
			log.Printf("[offline] remove after replay failed for %s: %v", item.ID, err)
			report.Failed++
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

// Run drains on every offline→online transition until ctx ends. An
// initial drain for the already-online case is the caller's job, before
// the recording session starts generating load.
func (q *Queue) Run(ctx context.Context, transitions <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-transitions:
			if !ok {
				return
			}
			if !online {
				continue
			}
			if report, err := q.Drain(ctx); err != nil {
				log.Printf("[offline] drain error: %v", err)
			} else if report.Succeeded+report.Failed > 0 {
				log.Printf("[offline] drained: %d ok, %d failed", report.Succeeded, report.Failed)
			}
		}
	}
}

// Pending returns the queue depth for the "N pending" indicator.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	return q.store.Count(ctx)
}

// Draining reports whether a pass is in flight.
func (q *Queue) Draining() bool {
	return q.gate.Busy()
}

func (q *Queue) send(ctx context.Context, p track.PendingPhoto) error {
	if q.uploader == nil || q.records == nil {
		return ErrRemoteUnavailable
	}
	url, err := q.uploader.Upload(ctx, p.ID+".jpg", p.Image)
	if err != nil {
		return err
	}
	return q.records.InsertPhoto(ctx, p, url)
}
