// Package resolver maps Salesforce record IDs to HubSpot record IDs
// through the CRM search API, batching lookups and pacing requests to
// stay inside HubSpot's rate limits.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/ratelimit"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// streamName is the rate limit stream shared by all search batches.
	streamName = "hubspot-search"

	// DefaultBatchDelay is the minimum pause between consecutive search
	// batches when no delay is configured.
	DefaultBatchDelay = 100 * time.Millisecond

	maxLimitWait = 30 * time.Second
)

// Searcher is the slice of the HubSpot service the resolver needs.
type Searcher interface {
	SearchByProperty(ctx context.Context, objectType, propertyName string, values []string) (map[string]string, error)
}

// Resolver resolves Salesforce parent IDs into HubSpot record IDs. Results
// are cached for the lifetime of the resolver, so resolving the same IDs
// twice within a run issues no additional requests.
type Resolver struct {
	searcher   Searcher
	limits     *ratelimit.Manager
	logger     ectologger.Logger
	batchSize  int
	batchDelay time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	hubspotID string
	found     bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBatchSize overrides the number of IDs sent per search request.
func WithBatchSize(size int) Option {
	return func(r *Resolver) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithBatchDelay overrides the pause between consecutive search batches.
func WithBatchDelay(delay time.Duration) Option {
	return func(r *Resolver) {
		if delay > 0 {
			r.batchDelay = delay
		}
	}
}

func New(searcher Searcher, limits *ratelimit.Manager, logger ectologger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		searcher:   searcher,
		limits:     limits,
		logger:     logger,
		batchSize:  100,
		batchDelay: DefaultBatchDelay,
		cache:      make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limits != nil {
		r.limits.Configure(streamName, r.batchDelay)
	}
	return r
}

// Resolve looks up the HubSpot record IDs for the given Salesforce IDs on a
// single object type. The returned map contains only IDs that matched; IDs
// with no HubSpot counterpart are simply absent. Previously resolved IDs,
// hits and misses alike, are served from the cache without a request.
func (r *Resolver) Resolve(ctx context.Context, mapping models.ObjectMapping, ids []string) (map[string]string, error) {
	ctx, span := tracing.StartSpan(ctx, "Resolver.Resolve")
	defer span.End()

	resolved := make(map[string]string)
	pending := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	r.mu.Lock()
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if entry, ok := r.cache[id]; ok {
			if entry.found {
				resolved[id] = entry.hubspotID
			}
			continue
		}
		pending = append(pending, id)
	}
	r.mu.Unlock()

	if len(pending) == 0 {
		return resolved, nil
	}

	for start := 0; start < len(pending); start += r.batchSize {
		end := start + r.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := r.pace(ctx); err != nil {
			return nil, err
		}

		found, err := r.searcher.SearchByProperty(ctx, mapping.ObjectName, mapping.SearchProperty, batch)
		if err != nil {
			// A failed batch never aborts the run. Its IDs stay
			// unresolved and surface as skipped audit rows; they are
			// not cached, so a later resolve may retry them.
			metrics.ResolverBatches.WithLabelValues(mapping.ObjectName, "error").Inc()
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"object": mapping.ObjectName,
				"batch":  len(batch),
			}).Warn("search batch failed, treating IDs as unresolved")
			continue
		}
		metrics.ResolverBatches.WithLabelValues(mapping.ObjectName, "success").Inc()

		r.mu.Lock()
		for _, id := range batch {
			hubspotID, ok := found[id]
			r.cache[id] = cacheEntry{hubspotID: hubspotID, found: ok}
			if ok {
				resolved[id] = hubspotID
			}
		}
		r.mu.Unlock()

		r.logger.WithContext(ctx).WithFields(map[string]any{
			"object":  mapping.ObjectName,
			"batch":   len(batch),
			"matched": len(found),
		}).Debug("resolved search batch")
	}

	return resolved, nil
}

func (r *Resolver) pace(ctx context.Context) error {
	if r.limits == nil {
		return nil
	}
	start := time.Now()
	if err := r.limits.WaitForLimit(ctx, streamName, maxLimitWait); err != nil {
		return err
	}
	metrics.ResolverWaitTime.Observe(time.Since(start).Seconds())
	return nil
}
