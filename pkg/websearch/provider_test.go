package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleProviderSendsSearchControls(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[{"title":"SAP Business One","link":"https://www.sap.com/b1","snippet":"ERP for small businesses","displayLink":"www.sap.com"}]}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider("test-key", "engine", srv.URL, time.Second)
	items, err := p.Search(context.Background(), "sap b1", 5)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "https://www.sap.com/b1", items[0].Link)
	assert.Equal(t, "test-key", got.Get("key"))
	assert.Equal(t, "engine", got.Get("cx"))
	assert.Equal(t, "sap b1", got.Get("q"))
	assert.Equal(t, "5", got.Get("num"))
	assert.Equal(t, "active", got.Get("safe"))
	assert.Equal(t, reusableRights, got.Get("rights"))
}

func TestGoogleProviderClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorKind
	}{
		{
			name:   "daily quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Quota exceeded for quota metric 'Queries' and limit 'Queries per day'","status":"RESOURCE_EXHAUSTED"}}`,
			want:   KindQuotaExceeded,
		},
		{
			name:   "burst rate limit",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Too many requests","errors":[{"reason":"rateLimitExceeded"}]}}`,
			want:   KindRateLimited,
		},
		{
			name:   "bad key",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","errors":[{"reason":"badRequest"}]}}`,
			want:   KindInvalidAPIKey,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"This project does not have the access to Custom Search JSON API.","errors":[{"reason":"forbidden"}]}}`,
			want:   KindForbidden,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   ``,
			want:   KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewGoogleProvider("k", "cx", srv.URL, time.Second).Search(context.Background(), "q", 5)
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestGoogleProviderWithoutCredentialsMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewGoogleProvider("", "", srv.URL, time.Second).Search(context.Background(), "q", 5)

	assert.Equal(t, KindInvalidAPIKey, KindOf(err))
	assert.Zero(t, calls.Load())
}
