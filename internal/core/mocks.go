package core

import (
	"context"
	"sync"
	"time"

	"propertyalerts/internal/types"
)

// MockRateLimitStore returns Result and Err, or delegates to
// IncrementAndCheckFunc when set. Calls are recorded.
type MockRateLimitStore struct {
	Result                types.RateLimitResult
	Err                   error
	IncrementAndCheckFunc func(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error)

	mu    sync.Mutex
	Calls []RateLimitCall
}

type RateLimitCall struct {
	Key    string
	Limit  int
	Window time.Duration
}

func (m *MockRateLimitStore) IncrementAndCheck(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RateLimitCall{Key: key, Limit: limit, Window: window})
	m.mu.Unlock()

	if m.IncrementAndCheckFunc != nil {
		return m.IncrementAndCheckFunc(ctx, key, limit, window)
	}
	return m.Result, m.Err
}

// MockLatencyRecorder records RecordLatency calls.
type MockLatencyRecorder struct {
	mu    sync.Mutex
	Calls []LatencyCall
}

type LatencyCall struct {
	Endpoint string
	Status   int
	Duration time.Duration
}

func (m *MockLatencyRecorder) RecordLatency(_ context.Context, endpoint string, status int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, LatencyCall{Endpoint: endpoint, Status: status, Duration: d})
}

var (
	_ RateLimitStore  = (*MockRateLimitStore)(nil)
	_ LatencyRecorder = (*MockLatencyRecorder)(nil)
)
