// Package websearch answers queries from live web results.
package websearch

import (
	"context"
	"fmt"
	"strings"

	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

const Name = "web_search"

// DefaultMaxResults is how many hits make it into an answer.
const DefaultMaxResults = 3

type Tool struct {
	searcher   Searcher
	cache      Cache
	maxResults int
	metrics    *metrics.Metrics
	group      singleflight.Group
}

// New builds the tool. cache and m may be nil.
func New(searcher Searcher, cache Cache, maxResults int, m *metrics.Metrics) *Tool {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Tool{
		searcher:   searcher,
		cache:      cache,
		maxResults: maxResults,
		metrics:    m,
	}
}

func (t *Tool) Name() string {
	return Name
}

// Invoke returns up to maxResults hits as "title: snippet (url)" blocks.
// Identical concurrent queries share one upstream request. The shared
// request runs detached from any single caller, so one caller leaving does
// not fail the others; each caller still returns when its own ctx is done.
func (t *Tool) Invoke(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))

	if t.cache != nil {
		if out, ok := t.cache.Get(ctx, key); ok {
			t.observeCache(true)
			return out, nil
		}
		t.observeCache(false)
	}

	shared := context.WithoutCancel(ctx)
	ch := t.group.DoChan(key, func() (interface{}, error) {
		results, err := t.searcher.Search(shared, query, t.maxResults)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrSearchFailed, err)
		}
		if len(results) == 0 {
			return "", apperr.ErrNoResults
		}

		out := Format(results, t.maxResults)
		if t.cache != nil {
			t.cache.Set(shared, key, out)
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return "", apperr.Wrap(apperr.ErrSearchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func Format(results []Result, max int) string {
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%s: %s (%s)", r.Title, r.Snippet, r.URL))
	}
	return strings.Join(parts, "\n\n")
}

func (t *Tool) observeCache(hit bool) {
	if t.metrics == nil {
		return
	}
	if hit {
		t.metrics.CacheHitsTotal.WithLabelValues(Name).Inc()
		return
	}
	t.metrics.CacheMissesTotal.WithLabelValues(Name).Inc()
}
