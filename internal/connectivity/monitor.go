// Package connectivity turns a periodic remote probe into online/offline
// transition events, mirroring the platform connectivity signal the
// offline queue listens to.
package connectivity

import (
	"context"
	"sync"
	"time"
)

// Probe reports whether the remote store is reachable right now.
type Probe func(ctx context.Context) error

// Monitor polls the probe on an interval and emits a transition each
// time reachability flips. The initial state is queried synchronously
// at Start so callers can drain immediately when already online.
type Monitor struct {
	probe    Probe
	interval time.Duration

	mu     sync.Mutex
	online bool

	transitions chan bool
	stop        chan struct{}
	done        chan struct{}
}

func NewMonitor(probe Probe, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		probe:       probe,
		interval:    interval,
		transitions: make(chan bool, 4),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start performs the initial synchronous query and launches the poll
// loop. Returns the initial online state.
func (m *Monitor) Start(ctx context.Context) bool {
	initial := m.check(ctx)
	m.mu.Lock()
	m.online = initial
	m.mu.Unlock()

	go m.loop()
	return initial
}

func (m *Monitor) loop() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := m.check(context.Background())
			m.mu.Lock()
			changed := now != m.online
			m.online = now
			m.mu.Unlock()
			if changed {
				select {
				case m.transitions <- now:
				default:
				}
			}
		}
	}
}

func (m *Monitor) check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return m.probe(probeCtx) == nil
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Transitions delivers true on offline→online and false on the reverse.
func (m *Monitor) Transitions() <-chan bool {
	return m.transitions
}

func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}
