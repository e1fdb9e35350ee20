package geoloc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"
)

const gpsdRedialDelay = 2 * time.Second

// GPSD reads TPV reports from a gpsd endpoint (newline-delimited JSON
// over TCP). One watch goroutine per Watch call; it redials on transport
// errors and reports them without stopping.
type GPSD struct {
	addr string

	mu       sync.Mutex
	lastFix  Sample
	hasFix   bool
	lastSeen time.Time

	dialFn func(ctx context.Context, addr string) (net.Conn, error)
}

func NewGPSD(addr string) *GPSD {
	return &GPSD{
		addr: addr,
		dialFn: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

type tpvReport struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Alt   *float64 `json:"alt"`
	Eph   *float64 `json:"eph"`
	Time  string   `json:"time"`
}

func (g *GPSD) Watch(ctx context.Context, opts Options) (<-chan Sample, <-chan error, error) {
	samples := make(chan Sample, 16)
	errs := make(chan error, 4)

	// A cached fix younger than MaxSampleAge is delivered right away.
	if fix, ok := g.cachedFix(opts.MaxSampleAge); ok {
		samples <- fix
	}

	go g.watchLoop(ctx, opts, samples, errs)
	return samples, errs, nil
}

func (g *GPSD) watchLoop(ctx context.Context, opts Options, samples chan<- Sample, errs chan<- error) {
	defer close(samples)

	firstFix := false
	var fixDeadline <-chan time.Time
	if opts.FirstFixTimeout > 0 {
		fixDeadline = time.After(opts.FirstFixTimeout)
	}

	lines := make(chan []byte, 16)
	go g.readLines(ctx, opts, lines, errs)

	for {
		select {
		case <-ctx.Done():
			return
		case <-fixDeadline:
			if !firstFix {
				g.report(errs, ErrNoFix)
			}
			fixDeadline = nil
		case line, ok := <-lines:
			if !ok {
				return
			}
			sample, ok := g.parseTPV(line)
			if !ok {
				continue
			}
			firstFix = true
			select {
			case samples <- sample:
			case <-ctx.Done():
				return
			}
		}
	}
}

// readLines owns the connection: dial, subscribe, stream, redial. Errors
// are reported and never terminal; gpsd watch survives signal loss.
func (g *GPSD) readLines(ctx context.Context, opts Options, lines chan<- []byte, errs chan<- error) {
	defer close(lines)

	watchCmd := `?WATCH={"enable":true,"json":true}` + "\n"
	if !opts.HighAccuracy {
		watchCmd = `?WATCH={"enable":true,"json":true,"scaled":true}` + "\n"
	}

	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := g.dialFn(ctx, g.addr)
		if err != nil {
			g.report(errs, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(gpsdRedialDelay):
				continue
			}
		}

		if _, err := conn.Write([]byte(watchCmd)); err != nil {
			g.report(errs, err)
			conn.Close()
			continue
		}

		go func() {
			<-ctx.Done()
			conn.Close()
		}()

		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		if err := scanner.Err(); err != nil {
			g.report(errs, err)
		}
	}
}

func (g *GPSD) parseTPV(line []byte) (Sample, bool) {
	var rpt tpvReport
	if err := json.Unmarshal(line, &rpt); err != nil {
		return Sample{}, false
	}
	if rpt.Class != "TPV" || rpt.Mode < 2 || rpt.Lat == nil || rpt.Lon == nil {
		return Sample{}, false
	}

	ts := time.Now()
	if rpt.Time != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, rpt.Time); err == nil {
			ts = parsed
		}
	}

	sample := Sample{
		Lat:       *rpt.Lat,
		Lon:       *rpt.Lon,
		T:         ts.UnixMilli(),
		AltitudeM: rpt.Alt,
		AccuracyM: rpt.Eph,
	}

	g.mu.Lock()
	g.lastFix = sample
	g.hasFix = true
	g.lastSeen = time.Now()
	g.mu.Unlock()

	return sample, true
}

func (g *GPSD) cachedFix(maxAge time.Duration) (Sample, bool) {
	if maxAge <= 0 {
		return Sample{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.hasFix || time.Since(g.lastSeen) > maxAge {
		return Sample{}, false
	}
	return g.lastFix, true
}

// Current is the one-shot variant: cached fix when fresh enough,
// otherwise a bounded wait on a temporary watch.
func (g *GPSD) Current(ctx context.Context, opts Options) (Sample, error) {
	if fix, ok := g.cachedFix(opts.MaxSampleAge); ok {
		return fix, nil
	}

	timeout := opts.FirstFixTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	watchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	samples, errs, err := g.Watch(watchCtx, opts)
	if err != nil {
		return Sample{}, err
	}

	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				return Sample{}, ErrNoFix
			}
			return sample, nil
		case <-errs:
			// transient; keep waiting out the deadline
		case <-watchCtx.Done():
			return Sample{}, ErrNoFix
		}
	}
}

func (g *GPSD) report(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}
