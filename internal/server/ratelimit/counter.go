// Package ratelimit provides the counter stores behind the API rate limiters
// and a limiter that only counts failed requests.
//
// Both stores implement httprate.LimitCounter so they plug into
// httprate.WithLimitCounter. The memory store keeps counts per process; the
// Redis store shares them between replicas.
package ratelimit

import (
	"time"

	"github.com/go-chi/httprate"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// NewMemoryCounter returns an in-process sliding-window counter.
func NewMemoryCounter(window time.Duration) httprate.LimitCounter {
	return httprate.NewLocalLimitCounter(window)
}

// windows returns the current and previous fixed windows containing t.
func windows(t time.Time, window time.Duration) (time.Time, time.Time) {
	cur := t.UTC().Truncate(window)
	return cur, cur.Add(-window)
}

// slidingRate weights the previous window by the share of it still inside
// the sliding window that ends at now.
func slidingRate(now, cur time.Time, window time.Duration, curCount, prevCount int) float64 {
	elapsed := now.Sub(cur)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > window {
		elapsed = window
	}
	weight := float64(window-elapsed) / float64(window)
	return float64(prevCount)*weight + float64(curCount)
}
