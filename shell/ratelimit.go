/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package shell

import (
	"context"
	"sync"
	"time"
)

// RateLimiter admits at most maxRequests commands in any sliding window of period
type RateLimiter struct {
	maxRequests int
	period      time.Duration
	requests    []time.Time
	now         func() time.Time
	mu          sync.Mutex
}

// NewRateLimiter creates a new rate limiter. A non-positive maxRequests disables limiting.
func NewRateLimiter(maxRequests int, period time.Duration) *RateLimiter {
	if maxRequests < 0 {
		maxRequests = 0
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		period:      period,
		requests:    make([]time.Time, 0, maxRequests),
		now:         time.Now,
	}
}

// Wait blocks until a slot is free or ctx is done. It returns the time spent waiting.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	if r == nil || r.maxRequests == 0 {
		return 0, nil
	}

	var waited time.Duration
	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)
		if len(r.requests) < r.maxRequests {
			r.requests = append(r.requests, now)
			r.mu.Unlock()
			return waited, nil
		}
		delay := r.requests[0].Add(r.period).Sub(now)
		r.mu.Unlock()

		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return waited, ctx.Err()
		case <-timer.C:
			waited += delay
		}
	}
}

// Available returns the number of requests available before hitting the limit
func (r *RateLimiter) Available() int {
	if r == nil || r.maxRequests == 0 {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(r.now())
	return r.maxRequests - len(r.requests)
}

// prune drops requests that have left the window. Caller holds mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.period)
	i := 0
	for i < len(r.requests) && !r.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.requests = append(r.requests[:0], r.requests[i:]...)
	}
}
