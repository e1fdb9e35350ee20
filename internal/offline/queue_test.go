package offline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	dbpkg "github.com/icalado/geo-snap-pro/internal/db"
	"github.com/icalado/geo-snap-pro/internal/track"
)

var errUpload = errors.New("upload failed")

type fakeUploader struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (u *fakeUploader) Upload(_ context.Context, filename string, _ []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.fail {
		return "", errUpload
	}
	return "https://storage.example/" + filename, nil
}

type fakeRecords struct {
	mu       sync.Mutex
	fail     bool
	inserted []string
	urls     []string
}

func (r *fakeRecords) InsertPhoto(_ context.Context, p track.PendingPhoto, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("insert failed")
	}
	r.inserted = append(r.inserted, p.ID)
	r.urls = append(r.urls, url)
	return nil
}

type fixedOnline bool

func (f fixedOnline) Online() bool { return bool(f) }

func newTestQueue(t *testing.T, online bool) (*Queue, *fakeUploader, *fakeRecords) {
	t.Helper()
	conn, err := dbpkg.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	store, err := NewPendingStore(conn)
	if err != nil {
		t.Fatalf("pending store: %v", err)
	}

	uploader := &fakeUploader{}
	records := &fakeRecords{}
	return NewQueue(store, uploader, records, fixedOnline(online)), uploader, records
}

func photo(id string) track.PendingPhoto {
	return track.PendingPhoto{
		ID:        id,
		UserID:    "user-1",
		ProjectID: "proj-1",
		Image:     []byte("jpeg"),
		Lat:       1, Lon: 2,
		TakenAt: 1000,
	}
}

func TestCaptureOfflineEnqueues(t *testing.T) {
	q, uploader, _ := newTestQueue(t, false)
	ctx := context.Background()

	if err := q.Capture(ctx, photo("p1")); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if uploader.calls != 0 {
		t.Fatalf("offline capture must not touch the network")
	}
	if n, _ := q.Pending(ctx); n != 1 {
		t.Fatalf("expected exactly one pending item, got %d", n)
	}
}

func TestCaptureOnlineSendsDirect(t *testing.T) {
	q, _, records := newTestQueue(t, true)
	ctx := context.Background()

	if err := q.Capture(ctx, photo("p1")); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if n, _ := q.Pending(ctx); n != 0 {
		t.Fatalf("direct send must not enqueue, got %d pending", n)
	}
	if len(records.inserted) != 1 {
		t.Fatalf("expected one remote record")
	}
}

func TestCaptureOnlineFailureFallsBackToQueue(t *testing.T) {
	q, uploader, _ := newTestQueue(t, true)
	uploader.fail = true

	if err := q.Capture(context.Background(), photo("p1")); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if n, _ := q.Pending(context.Background()); n != 1 {
		t.Fatalf("failed direct send must queue the photo")
	}
}

func TestDrainUploadsInArrivalOrder(t *testing.T) {
	q, _, records := newTestQueue(t, false)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		p := photo(id)
		q.nowFn = func() int64 { return int64(1000 + i) }
		if err := q.Capture(ctx, p); err != nil {
			t.Fatalf("capture %s: %v", id, err)
		}
	}

	report, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if report.Succeeded != 3 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if n, _ := q.Pending(ctx); n != 0 {
		t.Fatalf("expected empty queue after drain")
	}
	if len(records.inserted) != 3 || records.inserted[0] != "a" || records.inserted[2] != "c" {
		t.Fatalf("expected arrival order, got %v", records.inserted)
	}
}

func TestDrainFailureLeavesItemQueued(t *testing.T) {
	q, uploader, _ := newTestQueue(t, false)
	ctx := context.Background()

	if err := q.Capture(ctx, photo("p1")); err != nil {
		t.Fatalf("capture: %v", err)
	}

	uploader.fail = true
	report, err := q.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if report.Failed != 1 || report.Succeeded != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if n, _ := q.Pending(ctx); n != 1 {
		t.Fatalf("failed item must stay queued")
	}

	// next trigger retries and succeeds
	uploader.mu.Lock()
	uploader.fail = false
	uploader.mu.Unlock()
	report, err = q.Drain(ctx)
	if err != nil || report.Succeeded != 1 {
		t.Fatalf("expected retry to succeed: %+v %v", report, err)
	}
	if n, _ := q.Pending(ctx); n != 0 {
		t.Fatalf("expected empty queue")
	}
}

func TestRunDrainsOnOnlineTransition(t *testing.T) {
	q, _, records := newTestQueue(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Capture(ctx, photo("p1")); err != nil {
		t.Fatalf("capture: %v", err)
	}

	transitions := make(chan bool, 2)
	go q.Run(ctx, transitions)

	transitions <- false // offline transition must not drain
	transitions <- true

	deadline := time.After(2 * time.Second)
	for {
		records.mu.Lock()
		done := len(records.inserted) == 1
		records.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for drain on online transition")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPGRecordStoreInsert(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	store := NewPGRecordStore(mock)
	p := photo("p1")

	mock.ExpectExec(`INSERT INTO photos`).
		WithArgs("p1", "user-1", "proj-1", "https://x/p1.jpg", 1.0, 2.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), "", int64(1000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.InsertPhoto(context.Background(), p, "https://x/p1.jpg"); err != nil {
		t.Fatalf("insert photo: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
