package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Manager paces outbound request streams. Each named stream enforces a
// minimum interval between consecutive requests and honors server-imposed
// blocks (Retry-After). All state is in-process; runs are single-instance.
type Manager struct {
	logger ectologger.Logger

	mu      sync.Mutex
	streams map[string]*stream
}

type stream struct {
	interval    time.Duration
	nextAllowed time.Time
}

// NewManager creates a new rate limit manager
func NewManager(logger ectologger.Logger) *Manager {
	return &Manager{
		logger:  logger,
		streams: make(map[string]*stream),
	}
}

// Configure sets the minimum interval between requests on a stream. A zero
// interval disables pacing but keeps Retry-After handling.
func (m *Manager) Configure(name string, interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[name]
	if !ok {
		s = &stream{}
		m.streams[name] = s
	}
	s.interval = interval
}

// CheckResult represents the result of a rate limit check
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
	StreamName string
}

// Check checks whether a request on the stream may proceed now. An allowed
// check reserves the slot and advances the stream's next-allowed time.
func (m *Manager) Check(ctx context.Context, name string) *CheckResult {
	ctx, span := tracing.StartSpan(ctx, "RateLimitManager.Check")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[name]
	if !ok {
		s = &stream{}
		m.streams[name] = s
	}

	now := time.Now()
	if now.Before(s.nextAllowed) {
		return &CheckResult{
			Allowed:    false,
			RetryAfter: s.nextAllowed.Sub(now),
			StreamName: name,
		}
	}

	s.nextAllowed = now.Add(s.interval)
	return &CheckResult{Allowed: true, StreamName: name}
}

// WaitForLimit blocks until the stream allows a request or maxWait would be
// exceeded.
func (m *Manager) WaitForLimit(ctx context.Context, name string, maxWait time.Duration) error {
	ctx, span := tracing.StartSpan(ctx, "RateLimitManager.WaitForLimit")
	defer span.End()

	deadline := time.Now().Add(maxWait)

	for {
		result := m.Check(ctx, name)
		if result.Allowed {
			return nil
		}

		if time.Now().Add(result.RetryAfter).After(deadline) {
			return fmt.Errorf("rate limit %s would exceed max wait time of %v", result.StreamName, maxWait)
		}

		m.logger.WithContext(ctx).Debugf("Rate limited by %s, waiting %v", result.StreamName, result.RetryAfter)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(result.RetryAfter):
			// Continue and check again
		}
	}
}

// BlockFor blocks a stream for the given duration, used when the server
// answers 429.
func (m *Manager) BlockFor(ctx context.Context, name string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.streams[name]
	if !ok {
		s = &stream{}
		m.streams[name] = s
	}

	until := time.Now().Add(d)
	if until.After(s.nextAllowed) {
		s.nextAllowed = until
	}

	m.logger.WithContext(ctx).Warnf("stream %s blocked for %v", name, d)
}

// UpdateFromResponse applies a Retry-After header to the stream.
func (m *Manager) UpdateFromResponse(ctx context.Context, name string, headers map[string]string) {
	retryAfter, ok := headers["Retry-After"]
	if !ok {
		return
	}
	d, err := ParseRetryAfter(retryAfter)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).Warnf("unparseable Retry-After header: %s", retryAfter)
		return
	}
	m.BlockFor(ctx, name, d)
}

// ParseRetryAfter parses a Retry-After header value (delta seconds or HTTP
// date).
func ParseRetryAfter(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	if t, err := time.Parse(time.RFC1123, value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid Retry-After value: %s", value)
}
