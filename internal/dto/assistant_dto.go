package dto

import (
	"fmt"
	"time"
)

// Assistant endpoints use the camelCase contract the chat clients speak.

type ChatRequest struct {
	Message   string                 `json:"message"`
	Context   []string               `json:"context,omitempty" validate:"max=20,dive,max=2000"`
	SessionId string                 `json:"sessionId,omitempty" validate:"omitempty,max=128"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type WebSearchResultDTO struct {
	Title   string `json:"title"`
	Url     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type ChatResponse struct {
	Message            string               `json:"message"`
	Error              string               `json:"error,omitempty"`
	Code               string               `json:"code,omitempty"`
	SuggestedQuestions []string             `json:"suggestedQuestions,omitempty"`
	Confidence         *float64             `json:"confidence,omitempty"`
	FactChecked        bool                 `json:"factChecked,omitempty"`
	IsFaq              bool                 `json:"isFaq,omitempty"`
	IsWebSearch        bool                 `json:"isWebSearch,omitempty"`
	NeedsWebSearch     bool                 `json:"needsWebSearch,omitempty"`
	WebSearchResults   []WebSearchResultDTO `json:"webSearchResults,omitempty"`
	Timestamp          time.Time            `json:"timestamp"`
	RequestId          string               `json:"requestId"`
}

type SearchRequest struct {
	Query   string   `json:"query"`
	Context []string `json:"context,omitempty" validate:"max=20,dive,max=2000"`
}

type SearchResponse struct {
	Message            string               `json:"message"`
	IsWebSearch        bool                 `json:"isWebSearch"`
	WebSearchResults   []WebSearchResultDTO `json:"webSearchResults,omitempty"`
	Confidence         *float64             `json:"confidence,omitempty"`
	Error              string               `json:"error,omitempty"`
	Code               string               `json:"code,omitempty"`
	SuggestedQuestions []string             `json:"suggestedQuestions,omitempty"`
	Timestamp          time.Time            `json:"timestamp"`
	RequestId          string               `json:"requestId"`
}

type AnalyticsRequest struct {
	Event     string                 `json:"event" validate:"required,max=64"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp *time.Time             `json:"timestamp,omitempty"`
}

// AssistantError carries the status and the complete user-safe body of a
// failed assistant request.
type AssistantError struct {
	Status int
	Code   string
	Body   interface{}
}

func (e *AssistantError) Error() string {
	return fmt.Sprintf("assistant request failed with %d (%s)", e.Status, e.Code)
}

// --- Admin ---

type BreakerStatusDTO struct {
	ErrorCount          int        `json:"error_count"`
	ConsecutiveTimeouts int        `json:"consecutive_timeouts"`
	LastErrorAt         *time.Time `json:"last_error_at,omitempty"`
	LastResetAt         time.Time  `json:"last_reset_at"`
	Open                bool       `json:"open"`
}

type QuotaStatusDTO struct {
	Used    int       `json:"used"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

type RateLimitStatusDTO struct {
	Backend       string `json:"backend"`
	Limit         int    `json:"limit"`
	WindowSeconds int    `json:"window_seconds"`
}

type AssistantStatusResponse struct {
	Breaker   BreakerStatusDTO   `json:"breaker"`
	Quota     QuotaStatusDTO     `json:"quota"`
	RateLimit RateLimitStatusDTO `json:"rate_limit"`
	Sessions  int                `json:"active_sessions"`
}
