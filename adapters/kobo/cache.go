package kobo

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"surveydash/domain/dataset"
	"surveydash/internal/metrics"
	"surveydash/ports"
)

// CachedSource memoizes loads for a fixed time. Cached tables are shared
// between callers, which is safe because tables are never mutated.
type CachedSource struct {
	source ports.SurveySource
	cache  *cache.Cache
}

// NewCachedSource wraps source with a ttl-bound cache
func NewCachedSource(source ports.SurveySource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Load returns a cached table when one is fresh, otherwise loads it
func (s *CachedSource) Load(ctx context.Context, query dataset.Query) (*dataset.Table, error) {
	key := query.AssetUID + "|" + query.SubmittedAfter.UTC().Format(time.RFC3339)
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheResult("kobo", true)
		return cached.(*dataset.Table), nil
	}
	metrics.CacheResult("kobo", false)

	table, err := s.source.Load(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, table)
	return table, nil
}

// Flush drops every cached table
func (s *CachedSource) Flush() {
	s.cache.Flush()
}
