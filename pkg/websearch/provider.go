package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RawResult is one unscored provider hit.
type RawResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

// Provider is the metered third-party search backend.
type Provider interface {
	Search(ctx context.Context, query string, count int) ([]RawResult, error)
}

// Content-license filter preferring freely reusable material.
const reusableRights = "cc_publicdomain,cc_attribute,cc_sharealike"

// GoogleProvider calls the Custom Search JSON API.
type GoogleProvider struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

func NewGoogleProvider(apiKey, engineID, baseURL string, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type googleResponse struct {
	Items []RawResult    `json:"items"`
	Error *googleFailure `json:"error,omitempty"`
}

type googleFailure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Errors  []struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *GoogleProvider) Search(ctx context.Context, query string, count int) ([]RawResult, error) {
	if p.apiKey == "" || p.engineID == "" {
		return nil, &SearchError{Kind: KindInvalidAPIKey, Message: "search provider credentials are not configured"}
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(count))
	params.Set("safe", "active")
	params.Set("rights", reusableRights)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &SearchError{Kind: KindGeneric, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &SearchError{Kind: KindGeneric, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &SearchError{Kind: KindGeneric, Message: "failed to read response", Err: err}
	}

	var parsed googleResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode == http.StatusOK {
			return nil, &SearchError{Kind: KindGeneric, Message: "failed to decode response", Err: err}
		}
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		return nil, classifyFailure(resp.StatusCode, parsed.Error)
	}

	return parsed.Items, nil
}

func classifyFailure(status int, f *googleFailure) *SearchError {
	msg := http.StatusText(status)
	var detail strings.Builder
	if f != nil {
		if f.Message != "" {
			msg = f.Message
		}
		detail.WriteString(strings.ToLower(f.Message + " " + f.Status))
		for _, e := range f.Errors {
			detail.WriteString(" " + strings.ToLower(e.Reason+" "+e.Message))
		}
	}
	text := detail.String()

	kind := KindGeneric
	switch {
	case strings.Contains(text, "quota") || strings.Contains(text, "dailylimitexceeded") || strings.Contains(text, "resource_exhausted"):
		kind = KindQuotaExceeded
	case strings.Contains(text, "api key not valid") || strings.Contains(text, "keyinvalid") || strings.Contains(text, "api_key_invalid"):
		kind = KindInvalidAPIKey
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusTooManyRequests || strings.Contains(text, "ratelimitexceeded"):
		kind = KindRateLimited
	}

	return &SearchError{Kind: kind, Message: fmt.Sprintf("provider returned %d: %s", status, msg)}
}
