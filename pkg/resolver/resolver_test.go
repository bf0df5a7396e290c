package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/ratelimit"
)

type fakeSearcher struct {
	calls   [][]string
	records map[string]string
	err     error
}

func (f *fakeSearcher) SearchByProperty(_ context.Context, _, _ string, values []string) (map[string]string, error) {
	batch := make([]string, len(values))
	copy(batch, values)
	f.calls = append(f.calls, batch)
	if f.err != nil {
		return nil, f.err
	}
	found := make(map[string]string)
	for _, v := range values {
		if id, ok := f.records[v]; ok {
			found[v] = id
		}
	}
	return found, nil
}

// failOnceSearcher fails the first batch only.
type failOnceSearcher struct {
	fakeSearcher
}

func (f *failOnceSearcher) SearchByProperty(ctx context.Context, objectType, property string, values []string) (map[string]string, error) {
	if len(f.calls) == 0 {
		batch := make([]string, len(values))
		copy(batch, values)
		f.calls = append(f.calls, batch)
		return nil, assert.AnError
	}
	return f.fakeSearcher.SearchByProperty(ctx, objectType, property, values)
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func contactsMapping() models.ObjectMapping {
	return models.ObjectMapping{Prefix: "003", ObjectName: "contacts", SearchProperty: "salesforce_id"}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("maps hits and drops misses", func(t *testing.T) {
		searcher := &fakeSearcher{records: map[string]string{"003A": "101"}}
		r := New(searcher, nil, testLogger())

		resolved, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003B"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"003A": "101"}, resolved)
	})

	t.Run("deduplicates input IDs", func(t *testing.T) {
		searcher := &fakeSearcher{records: map[string]string{"003A": "101"}}
		r := New(searcher, nil, testLogger())

		resolved, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003A", "", "003A"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"003A": "101"}, resolved)
		require.Len(t, searcher.calls, 1)
		assert.Equal(t, []string{"003A"}, searcher.calls[0])
	})

	t.Run("second resolve is served from cache", func(t *testing.T) {
		searcher := &fakeSearcher{records: map[string]string{"003A": "101"}}
		r := New(searcher, nil, testLogger())

		first, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003B"})
		require.NoError(t, err)
		require.Len(t, searcher.calls, 1)

		second, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003B"})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, searcher.calls, 1, "cached IDs must not trigger new requests")
	})

	t.Run("misses are cached too", func(t *testing.T) {
		searcher := &fakeSearcher{}
		r := New(searcher, nil, testLogger())

		_, err := r.Resolve(ctx, contactsMapping(), []string{"003B"})
		require.NoError(t, err)
		_, err = r.Resolve(ctx, contactsMapping(), []string{"003B"})
		require.NoError(t, err)
		assert.Len(t, searcher.calls, 1)
	})

	t.Run("a failed batch leaves its IDs unresolved, not fatal", func(t *testing.T) {
		searcher := &fakeSearcher{err: assert.AnError}
		r := New(searcher, nil, testLogger())

		resolved, err := r.Resolve(ctx, contactsMapping(), []string{"003A"})
		require.NoError(t, err, "search failures must not abort resolution")
		assert.Empty(t, resolved)
	})

	t.Run("failed batches are not cached and retry on the next resolve", func(t *testing.T) {
		searcher := &fakeSearcher{err: assert.AnError}
		r := New(searcher, nil, testLogger())

		_, err := r.Resolve(ctx, contactsMapping(), []string{"003A"})
		require.NoError(t, err)

		searcher.err = nil
		searcher.records = map[string]string{"003A": "101"}
		resolved, err := r.Resolve(ctx, contactsMapping(), []string{"003A"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"003A": "101"}, resolved)
		assert.Len(t, searcher.calls, 2)
	})

	t.Run("one failed batch does not stop later batches", func(t *testing.T) {
		searcher := &failOnceSearcher{
			fakeSearcher: fakeSearcher{records: map[string]string{"003B": "102"}},
		}
		r := New(searcher, nil, testLogger(), WithBatchSize(1))

		resolved, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003B"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"003B": "102"}, resolved)
		require.Len(t, searcher.calls, 2)
	})
}

func TestResolver_Batching(t *testing.T) {
	ctx := context.Background()

	t.Run("splits large inputs into batches", func(t *testing.T) {
		searcher := &fakeSearcher{}
		r := New(searcher, nil, testLogger())

		ids := make([]string, 250)
		for i := range ids {
			ids[i] = fmt.Sprintf("003%04d", i)
		}

		_, err := r.Resolve(ctx, contactsMapping(), ids)
		require.NoError(t, err)
		require.Len(t, searcher.calls, 3)
		assert.Len(t, searcher.calls[0], 100)
		assert.Len(t, searcher.calls[1], 100)
		assert.Len(t, searcher.calls[2], 50)
	})

	t.Run("paces consecutive batches", func(t *testing.T) {
		searcher := &fakeSearcher{}
		limits := ratelimit.NewManager(testLogger())
		r := New(searcher, limits, testLogger(), WithBatchSize(10), WithBatchDelay(30*time.Millisecond))

		ids := make([]string, 30)
		for i := range ids {
			ids[i] = fmt.Sprintf("003%04d", i)
		}

		start := time.Now()
		_, err := r.Resolve(ctx, contactsMapping(), ids)
		require.NoError(t, err)
		require.Len(t, searcher.calls, 3)
		// two inter-batch waits at 30ms each
		assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	})

	t.Run("custom batch size", func(t *testing.T) {
		searcher := &fakeSearcher{}
		r := New(searcher, nil, testLogger(), WithBatchSize(2))

		_, err := r.Resolve(ctx, contactsMapping(), []string{"003A", "003B", "003C"})
		require.NoError(t, err)
		assert.Len(t, searcher.calls, 2)
	})
}
