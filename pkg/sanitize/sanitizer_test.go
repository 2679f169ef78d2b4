package sanitize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRejectsEmptyAndOversized(t *testing.T) {
	s := New(500, 100)

	_, err := s.Message("   \n\t ")
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Message is required", vErr.Message)

	_, err = s.Message(strings.Repeat("a", 501))
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Message, "Message exceeds maximum length")

	out, err := s.Message(strings.Repeat("a", 500))
	require.NoError(t, err)
	assert.Len(t, out, 500)
}

func TestMessageNormalizesWhitespaceAndQuotes(t *testing.T) {
	s := New(500, 100)

	out, err := s.Message("  What’s   your “best”\n\noffer? ")
	require.NoError(t, err)
	assert.Equal(t, `What's your "best" offer?`, out)
}

func TestSearchQueryScrubsUnsafeContent(t *testing.T) {
	s := New(500, 100)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "script block", input: "sap <script>alert(1)</script> modules", want: "sap modules"},
		{name: "event handler", input: `erp <b onmouseover="x()">tools</b>`, want: "erp tools"},
		{name: "javascript uri", input: "javascript:alert(1) rpa", want: "alert(1) rpa"},
		{name: "sql", input: "crm' union select password from users --", want: "crm' users"},
		{name: "iframe and img", input: `<iframe src="x"></iframe>hana <img src=x>`, want: "hana"},
		{name: "eval", input: "eval(document.cookie) erp", want: "document.cookie) erp"},
		{name: "plain", input: "SAP Business One features", want: "SAP Business One features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchQuery(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchQueryLimits(t *testing.T) {
	s := New(500, 100)

	_, err := s.SearchQuery(strings.Repeat("q", 101))
	assert.Error(t, err)

	_, err = s.SearchQuery("<script>evil()</script>")
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "query", vErr.Field)
}

func TestContextKeepsNewestEntries(t *testing.T) {
	s := New(500, 100)

	out := s.Context([]string{"one", " ", "two", "three", "four", "five", "six"}, 5)
	assert.Equal(t, []string{"two", "three", "four", "five", "six"}, out)
}
