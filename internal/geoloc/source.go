// Package geoloc wraps continuous-position providers behind one Source
// interface. The gpsd client is the production provider; Replay feeds
// scripted fixes for tests and bench runs.
package geoloc

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported means no position provider is configured on this device.
var ErrUnsupported = errors.New("geolocation unsupported")

// ErrNoFix means no position became available within the bounded wait.
var ErrNoFix = errors.New("no position fix")

// Sample is one position report from the provider.
type Sample struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	T         int64    `json:"t"` // epoch millis
	AltitudeM *float64 `json:"altitude_m,omitempty"`
	AccuracyM *float64 `json:"accuracy_m,omitempty"`
}

// Options mirror the platform watch knobs: high-accuracy mode, a bounded
// wait for the first fix, and reuse of cached fixes younger than
// MaxSampleAge.
type Options struct {
	HighAccuracy    bool
	FirstFixTimeout time.Duration
	MaxSampleAge    time.Duration
}

// DefaultOptions match the recording engine's subscription: high
// accuracy, 10s first-fix bound, ~1s cached-fix reuse.
func DefaultOptions() Options {
	return Options{
		HighAccuracy:    true,
		FirstFixTimeout: 10 * time.Second,
		MaxSampleAge:    time.Second,
	}
}

// Source is a continuous position provider. Watch delivers samples until
// ctx is cancelled; provider errors arrive on the error channel and never
// close the sample stream (the provider keeps retrying). Current is the
// one-shot variant used outside tracking.
type Source interface {
	Watch(ctx context.Context, opts Options) (<-chan Sample, <-chan error, error)
	Current(ctx context.Context, opts Options) (Sample, error)
}
