package geoloc

import (
	"context"
	"time"
)

// Replay feeds a scripted sequence of fixes, optionally spaced by a fixed
// interval. Zero interval delivers as fast as the consumer reads, which
// is what the tests want.
type Replay struct {
	Samples  []Sample
	Interval time.Duration
	// Errs are interleaved before the corresponding sample index, keyed
	// by position. A nil map injects nothing.
	Errs map[int]error
}

func (r *Replay) Watch(ctx context.Context, _ Options) (<-chan Sample, <-chan error, error) {
	samples := make(chan Sample)
	errs := make(chan error, len(r.Errs)+1)

	go func() {
		defer close(samples)
		for i, s := range r.Samples {
			if err, ok := r.Errs[i]; ok {
				errs <- err
			}
			if r.Interval > 0 {
				select {
				case <-time.After(r.Interval):
				case <-ctx.Done():
					return
				}
			}
			select {
			case samples <- s:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()

	return samples, errs, nil
}

func (r *Replay) Current(_ context.Context, _ Options) (Sample, error) {
	if len(r.Samples) == 0 {
		return Sample{}, ErrNoFix
	}
	return r.Samples[0], nil
}
