package websearch

import (
	"context"
	"errors"
	"strings"
	"time"

	"atlas-assistant-be/pkg/guard"
	"atlas-assistant-be/pkg/store"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	informationalSuffix = "information guide tutorial"
	maxContextMessages  = 2
	maxContextLength    = 100
	defaultCacheSize    = 256
	defaultCacheTTL     = 3 * time.Minute
	defaultResultCount  = 5
	defaultFetchTimeout = 7 * time.Second
)

type Config struct {
	ResultCount int
	DirectScore float64
	CacheSize   int
	CacheTTL    time.Duration
	// FetchTimeout bounds a shared provider call independently of any
	// single caller's deadline.
	FetchTimeout time.Duration
}

type cacheEntry struct {
	results  []store.WebResult
	storedAt time.Time
}

// Searcher fronts the metered provider with a short-lived result cache,
// duplicate collapsing and the daily quota.
type Searcher struct {
	provider    Provider
	quota       *guard.Quota
	cache       *lru.Cache[string, cacheEntry]
	ttl         time.Duration
	group       singleflight.Group
	fetchTTL    time.Duration
	resultCount int
	directScore float64
	now         func() time.Time
}

type SearcherOption func(*Searcher)

// WithSearchClock sets a custom clock function (for testing).
func WithSearchClock(fn func() time.Time) SearcherOption {
	return func(s *Searcher) { s.now = fn }
}

func NewSearcher(provider Provider, quota *guard.Quota, cfg Config, opts ...SearcherOption) *Searcher {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.ResultCount <= 0 {
		cfg.ResultCount = defaultResultCount
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	// lru.New only errors on a non-positive size, guarded above.
	cache, _ := lru.New[string, cacheEntry](cfg.CacheSize)

	s := &Searcher{
		provider:    provider,
		quota:       quota,
		cache:       cache,
		ttl:         cfg.CacheTTL,
		fetchTTL:    cfg.FetchTimeout,
		resultCount: cfg.ResultCount,
		directScore: cfg.DirectScore,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns filtered results ranked best first.
func (s *Searcher) Search(ctx context.Context, query string, conversation []string) ([]store.WebResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := BuildQuery(query, conversation)
	key := strings.ToLower(q)

	if entry, ok := s.cache.Get(key); ok {
		if s.now().Sub(entry.storedAt) < s.ttl {
			return cloneResults(entry.results), nil
		}
		s.cache.Remove(key)
	}

	// The shared call is detached from the first caller's cancellation.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTTL)
		defer cancel()
		return s.fetch(fetchCtx, q, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneResults(res.Val.([]store.WebResult)), nil
	}
}

// Answer runs Search and synthesizes a web-sourced candidate.
func (s *Searcher) Answer(ctx context.Context, query string, conversation []string) (store.CandidateAnswer, error) {
	results, err := s.Search(ctx, query, conversation)
	if err != nil {
		return store.CandidateAnswer{}, err
	}
	return Synthesize(query, results, s.directScore), nil
}

func (s *Searcher) fetch(ctx context.Context, q, original string) ([]store.WebResult, error) {
	if !s.quota.HasQuota() {
		return nil, &SearchError{Kind: KindQuotaExceeded, Message: "daily search quota reached"}
	}
	// Counted before the call so an abandoned call is still charged.
	s.quota.Consume()

	raw, err := s.provider.Search(ctx, q, s.resultCount)
	if err != nil {
		var se *SearchError
		if errors.As(err, &se) {
			if se.ExhaustsQuota() {
				s.quota.ForceExhausted()
			}
			return nil, se
		}
		return nil, &SearchError{Kind: KindGeneric, Message: "provider call failed", Err: err}
	}

	results := Rank(Filter(raw, original), original, s.now())
	if len(results) == 0 {
		return nil, &SearchError{Kind: KindNoResults, Message: "no usable results"}
	}

	s.cache.Add(strings.ToLower(q), cacheEntry{results: results, storedAt: s.now()})
	return results, nil
}

// BuildQuery biases the provider toward informational pages using up to two
// short recent messages.
func BuildQuery(query string, conversation []string) string {
	parts := []string{strings.TrimSpace(query)}
	added := 0
	for i := len(conversation) - 1; i >= 0 && added < maxContextMessages; i-- {
		c := strings.TrimSpace(conversation[i])
		if c == "" || len([]rune(c)) >= maxContextLength || strings.EqualFold(c, query) {
			continue
		}
		parts = append(parts, c)
		added++
	}
	parts = append(parts, informationalSuffix)
	return strings.Join(parts, " ")
}

func cloneResults(in []store.WebResult) []store.WebResult {
	return append([]store.WebResult(nil), in...)
}
