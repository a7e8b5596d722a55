// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"math/rand/v2"
	"time"
)

// Throttle pauses between words.
type Throttle interface {
	Wait(ctx context.Context) error
}

// RandomDelay waits a uniformly random duration in [Min, Max].
type RandomDelay struct {
	Min, Max time.Duration

	rnd   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRandomDelay returns a RandomDelay. A nil rnd uses the global source.
func NewRandomDelay(lo, hi time.Duration, rnd *rand.Rand) *RandomDelay {
	if hi < lo {
		hi = lo
	}
	return &RandomDelay{Min: lo, Max: hi, rnd: rnd, sleep: sleepContext}
}

// Next draws the next delay.
func (t *RandomDelay) Next() time.Duration {
	span := int64(t.Max - t.Min)
	if span <= 0 {
		return t.Min
	}
	var n int64
	if t.rnd != nil {
		n = t.rnd.Int64N(span + 1)
	} else {
		n = rand.Int64N(span + 1)
	}
	return t.Min + time.Duration(n)
}

// Wait sleeps for the next delay or until ctx is done.
func (t *RandomDelay) Wait(ctx context.Context) error {
	return t.sleep(ctx, t.Next())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
