// Package wakelock keeps the device awake while a recording session is
// foregrounded. Acquisition is best-effort throughout: a failed lock is
// logged by the caller and never stops recording.
package wakelock

import (
	"context"
	"os/exec"
	"sync"
)

// Coordinator acquires and releases a stay-awake inhibitor. Release is
// idempotent and never blocks shutdown.
type Coordinator interface {
	Acquire(ctx context.Context) error
	Release()
}

// Nop satisfies Coordinator on platforms without an inhibitor.
type Nop struct{}

func (Nop) Acquire(context.Context) error { return nil }
func (Nop) Release()                      {}

// Inhibitor holds a systemd-inhibit child process for the lifetime of
// the lock.
type Inhibitor struct {
	Who string
	Why string

	mu  sync.Mutex
	cmd *exec.Cmd

	startFn func(ctx context.Context, who, why string) (*exec.Cmd, error)
}

func NewInhibitor(who, why string) *Inhibitor {
	return &Inhibitor{Who: who, Why: why, startFn: startInhibit}
}

func startInhibit(ctx context.Context, who, why string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, "systemd-inhibit",
		"--what=idle:sleep", "--who="+who, "--why="+why,
		"tail", "-f", "/dev/null")
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Acquire starts the inhibitor process; re-acquiring while held is a
// no-op so visibility-change re-acquire stays cheap.
func (i *Inhibitor) Acquire(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cmd != nil {
		return nil
	}
	cmd, err := i.startFn(ctx, i.Who, i.Why)
	if err != nil {
		return err
	}
	i.cmd = cmd
	return nil
}

func (i *Inhibitor) Release() {
	i.mu.Lock()
	cmd := i.cmd
	i.cmd = nil
	i.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		go func() { _ = cmd.Wait() }()
	}
}

// Held reports whether the lock is currently acquired.
func (i *Inhibitor) Held() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cmd != nil
}
