package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestManager_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("first request passes immediately", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", 100*time.Millisecond)

		result := m.Check(ctx, "search")
		assert.True(t, result.Allowed)
	})

	t.Run("second request within the interval is denied", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", 100*time.Millisecond)

		require.True(t, m.Check(ctx, "search").Allowed)
		result := m.Check(ctx, "search")
		assert.False(t, result.Allowed)
		assert.Greater(t, result.RetryAfter, time.Duration(0))
	})

	t.Run("streams are independent", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", 100*time.Millisecond)
		m.Configure("files", 100*time.Millisecond)

		require.True(t, m.Check(ctx, "search").Allowed)
		assert.True(t, m.Check(ctx, "files").Allowed)
	})

	t.Run("unconfigured streams pass", func(t *testing.T) {
		m := newTestManager()
		assert.True(t, m.Check(ctx, "anything").Allowed)
		assert.True(t, m.Check(ctx, "anything").Allowed)
	})
}

func TestManager_WaitForLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("waits out the interval", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", 20*time.Millisecond)

		require.True(t, m.Check(ctx, "search").Allowed)

		start := time.Now()
		err := m.WaitForLimit(ctx, "search", time.Second)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	})

	t.Run("fails when wait would exceed max", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", time.Minute)

		require.True(t, m.Check(ctx, "search").Allowed)
		err := m.WaitForLimit(ctx, "search", 10*time.Millisecond)
		assert.Error(t, err)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		m := newTestManager()
		m.Configure("search", time.Minute)
		require.True(t, m.Check(ctx, "search").Allowed)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()
		err := m.WaitForLimit(cancelCtx, "search", 2*time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManager_BlockFor(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.BlockFor(ctx, "search", time.Minute)
	result := m.Check(ctx, "search")
	assert.False(t, result.Allowed)
}

func TestManager_UpdateFromResponse(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	m.UpdateFromResponse(ctx, "search", map[string]string{"Retry-After": "60"})
	result := m.Check(ctx, "search")
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter, 50*time.Second)
}

func TestParseRetryAfter(t *testing.T) {
	t.Run("delta seconds", func(t *testing.T) {
		d, err := ParseRetryAfter("30")
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, d)
	})

	t.Run("http date", func(t *testing.T) {
		value := time.Now().Add(time.Minute).UTC().Format(time.RFC1123)
		d, err := ParseRetryAfter(value)
		require.NoError(t, err)
		assert.Greater(t, d, 30*time.Second)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseRetryAfter("soon")
		assert.Error(t, err)
	})
}
