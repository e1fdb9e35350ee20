package outbox

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	var pushes atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { pushes.Add(1) })

	for i := 0; i < 5; i++ {
		d.Schedule()
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	if got := pushes.Load(); got != 1 {
		t.Fatalf("expected 1 coalesced push, got %d", got)
	}
}

func TestDebouncerFlushCancelsTimer(t *testing.T) {
	var pushes atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { pushes.Add(1) })

	d.Schedule()
	d.Flush()

	time.Sleep(120 * time.Millisecond)
	if got := pushes.Load(); got != 1 {
		t.Fatalf("expected flush to supersede timer, got %d pushes", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var pushes atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { pushes.Add(1) })

	d.Schedule()
	d.Cancel()

	time.Sleep(80 * time.Millisecond)
	if got := pushes.Load(); got != 0 {
		t.Fatalf("expected cancelled timer not to fire, got %d", got)
	}
}

func TestGateSingleFlight(t *testing.T) {
	var g Gate
	if !g.TryEnter() {
		t.Fatalf("expected first entry to succeed")
	}
	if g.TryEnter() {
		t.Fatalf("expected re-entry to be refused")
	}
	if !g.Busy() {
		t.Fatalf("expected gate busy")
	}
	g.Leave()
	if g.Busy() {
		t.Fatalf("expected gate idle after leave")
	}
	if !g.TryEnter() {
		t.Fatalf("expected entry after leave")
	}
}
