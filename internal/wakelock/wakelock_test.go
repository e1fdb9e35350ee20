package wakelock

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func TestNop(t *testing.T) {
	var c Coordinator = Nop{}
	if err := c.Acquire(context.Background()); err != nil {
		t.Fatalf("nop acquire: %v", err)
	}
	c.Release()
}

func TestInhibitorAcquireIdempotent(t *testing.T) {
	starts := 0
	i := NewInhibitor("geo-snap", "recording")
	i.startFn = func(ctx context.Context, _, _ string) (*exec.Cmd, error) {
		starts++
		cmd := exec.CommandContext(ctx, "sleep", "60")
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return cmd, nil
	}

	ctx := context.Background()
	if err := i.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := i.Acquire(ctx); err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if starts != 1 {
		t.Fatalf("expected one start, got %d", starts)
	}
	if !i.Held() {
		t.Fatalf("expected lock held")
	}

	i.Release()
	if i.Held() {
		t.Fatalf("expected lock released")
	}
	i.Release() // idempotent
}

func TestInhibitorAcquireFailure(t *testing.T) {
	i := NewInhibitor("geo-snap", "recording")
	i.startFn = func(context.Context, string, string) (*exec.Cmd, error) {
		return nil, errors.New("no systemd")
	}

	if err := i.Acquire(context.Background()); err == nil {
		t.Fatalf("expected acquire error")
	}
	if i.Held() {
		t.Fatalf("failed acquire must not hold")
	}
}
