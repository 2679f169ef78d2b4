package websearch

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"atlas-assistant-be/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu      sync.Mutex
	calls   atomic.Int32
	queries []string
	results []RawResult
	err     error
}

func (f *fakeProvider) Search(_ context.Context, query string, _ int) ([]RawResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.results, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var sampleResults = []RawResult{
	{
		Title:   "SAP Business One modules overview",
		Link:    "https://www.sap.com/products/erp/business-one.html",
		Snippet: "SAP Business One modules cover financials, inventory and production.",
	},
	{
		Title:   "SAP Business One plans",
		Link:    "https://partner.example.com/b1-plans",
		Snippet: "Start with a monthly subscription fee for each user.",
	},
	{
		Title:   "Thread about B1",
		Link:    "https://www.reddit.com/r/sap/b1",
		Snippet: "Anyone running SAP Business One in production?",
	},
	{
		Title:   "Legacy mirror",
		Link:    "http://mirror.example.org/b1",
		Snippet: "SAP Business One integrates with third party tools.",
	},
}

func newTestSearcher(p Provider, quota *guard.Quota, clock *fakeClock) *Searcher {
	return NewSearcher(p, quota, Config{ResultCount: 5, DirectScore: 0.8, CacheSize: 16, CacheTTL: 3 * time.Minute},
		WithSearchClock(clock.Now))
}

func TestSearchProviderNotCalledAfterQuotaExhausted(t *testing.T) {
	p := &fakeProvider{results: sampleResults}
	s := newTestSearcher(p, guard.NewQuota(2), &fakeClock{t: time.Now()})

	_, err := s.Search(context.Background(), "sap business one modules", nil)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "sap business one production", nil)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "sap business one inventory", nil)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestProviderQuotaErrorForcesExhaustion(t *testing.T) {
	p := &fakeProvider{err: &SearchError{Kind: KindQuotaExceeded, Message: "provider returned 429"}}
	quota := guard.NewQuota(90)
	s := newTestSearcher(p, quota, &fakeClock{t: time.Now()})

	_, err := s.Search(context.Background(), "sap modules", nil)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
	assert.False(t, quota.HasQuota())

	_, err = s.Search(context.Background(), "rpa bots", nil)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestRateLimitedProviderDoesNotExhaustQuota(t *testing.T) {
	p := &fakeProvider{err: &SearchError{Kind: KindRateLimited, Message: "slow down"}}
	quota := guard.NewQuota(90)
	s := newTestSearcher(p, quota, &fakeClock{t: time.Now()})

	_, err := s.Search(context.Background(), "sap modules", nil)

	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.True(t, quota.HasQuota())
	assert.Equal(t, 1, quota.Snapshot().Used)
}

func TestSearchCachesResults(t *testing.T) {
	p := &fakeProvider{results: sampleResults}
	clock := &fakeClock{t: time.Now()}
	quota := guard.NewQuota(90)
	s := newTestSearcher(p, quota, clock)

	_, err := s.Search(context.Background(), "SAP Business One modules", nil)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "sap business one modules", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, 1, quota.Snapshot().Used)

	clock.Advance(4 * time.Minute)
	_, err = s.Search(context.Background(), "sap business one modules", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestPricingResultsOnlyForPricingQueries(t *testing.T) {
	p := &fakeProvider{results: sampleResults}
	s := newTestSearcher(p, guard.NewQuota(90), &fakeClock{t: time.Now()})

	results, err := s.Search(context.Background(), "SAP Business One modules", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sap.com", results[0].Source)

	results, err = s.Search(context.Background(), "SAP Business One pricing", nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	var snippets []string
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
	}
	assert.Contains(t, strings.Join(snippets, " "), "monthly subscription fee")
}

func TestSearchWithNothingUsable(t *testing.T) {
	p := &fakeProvider{results: sampleResults[2:]}
	s := newTestSearcher(p, guard.NewQuota(90), &fakeClock{t: time.Now()})

	_, err := s.Search(context.Background(), "sap forum", nil)

	assert.Equal(t, KindNoResults, KindOf(err))
}

func TestSearchHonoursCallerDeadline(t *testing.T) {
	p := &fakeProvider{results: sampleResults}
	s := newTestSearcher(p, guard.NewQuota(90), &fakeClock{t: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Search(ctx, "sap modules", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type gatedProvider struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedProvider) Search(ctx context.Context, _ string, _ int) ([]RawResult, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.release:
		return sampleResults, nil
	}
}

func TestSharedSearchSurvivesFirstCallerCancel(t *testing.T) {
	p := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestSearcher(p, guard.NewQuota(90), &fakeClock{t: time.Now()})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Search(firstCtx, "sap business one modules", nil)
		firstErr <- err
	}()
	<-p.started
	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type outcome struct {
		results int
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := s.Search(context.Background(), "sap business one modules", nil)
		second <- outcome{results: len(res), err: err}
	}()
	time.Sleep(50 * time.Millisecond)
	close(p.release)

	got := <-second
	require.NoError(t, got.err)
	assert.NotZero(t, got.results)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestBuildQuery(t *testing.T) {
	long := strings.Repeat("x", 120)
	got := BuildQuery("What is new", []string{"oldest", long, "second short", "third short"})

	assert.Equal(t, "What is new third short second short information guide tutorial", got)
	assert.Equal(t, "sap information guide tutorial", BuildQuery("sap", nil))
}

func TestAnswerBuildsWebCandidate(t *testing.T) {
	p := &fakeProvider{results: sampleResults}
	s := newTestSearcher(p, guard.NewQuota(90), &fakeClock{t: time.Now()})

	got, err := s.Answer(context.Background(), "SAP Business One modules", nil)
	require.NoError(t, err)

	assert.True(t, got.IsWebSearch)
	assert.NotEmpty(t, got.Message)
	assert.Len(t, got.WebSearchResults, 1)
	assert.Greater(t, got.Confidence, 0.0)
}
