package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCorpusLoads(t *testing.T) {
	kb, err := NewKeywordBase("")
	require.NoError(t, err)
	assert.NotEmpty(t, kb.entries)
}

func TestQueryMatchesKeywords(t *testing.T) {
	kb, err := NewKeywordBase("")
	require.NoError(t, err)

	got, err := kb.Query(context.Background(), "How long does an SAP implementation take?", nil)
	require.NoError(t, err)

	assert.Equal(t, "implementation", got.MatchedID)
	assert.True(t, got.IsFAQ)
	assert.False(t, got.ShouldUseWebSearch)
	assert.GreaterOrEqual(t, got.Confidence, 0.6)
	assert.NotEmpty(t, got.SuggestedQuestions)
}

func TestQueryWithoutMatchAsksForWebSearch(t *testing.T) {
	kb, err := NewKeywordBase("")
	require.NoError(t, err)

	got, err := kb.Query(context.Background(), "weather in lisbon tomorrow", nil)
	require.NoError(t, err)

	assert.Empty(t, got.Message)
	assert.True(t, got.ShouldUseWebSearch)
	assert.Less(t, got.Confidence, 0.2)
}

func TestContextOnlyHitsStayBelowWeakMatch(t *testing.T) {
	kb, err := ParseKeywordBase([]byte(`
entries:
  - id: rpa
    question: What is RPA?
    keywords: [rpa, bots]
    answer: RPA uses software bots.
`))
	require.NoError(t, err)

	got, err := kb.Query(context.Background(), "tell me more", []string{"what is rpa", "do you build bots"})
	require.NoError(t, err)

	assert.Equal(t, "rpa", got.MatchedID)
	assert.InDelta(t, 0.2, got.Confidence, 1e-9)
}

func TestWebSearchFlaggedEntry(t *testing.T) {
	kb, err := NewKeywordBase("")
	require.NoError(t, err)

	got, err := kb.Query(context.Background(), "what is in the latest release", nil)
	require.NoError(t, err)

	assert.Equal(t, "latest-release", got.MatchedID)
	assert.True(t, got.ShouldUseWebSearch)
}

func TestParseRejectsEmptyCorpus(t *testing.T) {
	_, err := ParseKeywordBase([]byte("entries: []"))
	assert.Error(t, err)
}

func TestQueryCancelledContext(t *testing.T) {
	kb, err := NewKeywordBase("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = kb.Query(ctx, "sap", nil)
	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))
	assert.ErrorIs(t, err, context.Canceled)
}
