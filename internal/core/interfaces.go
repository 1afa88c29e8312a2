package core

import (
	"context"
	"time"

	"propertyalerts/internal/types"
)

// RateLimitStore abstracts the backing store for rate limiting.
// Production uses Redis; tests use MockRateLimitStore.
type RateLimitStore interface {
	// IncrementAndCheck atomically counts one hit for key and reports whether
	// the caller is still within limit for the current window.
	IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error)
}

// LatencyRecorder receives per-request latency. The pipeline metrics
// publisher satisfies it.
type LatencyRecorder interface {
	RecordLatency(ctx context.Context, endpoint string, status int, d time.Duration)
}

// HealthProbe is one subsystem checked by GET /health.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}
