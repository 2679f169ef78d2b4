package client

import "time"

// Request and response bodies of the assistant HTTP API, as seen by a client.

type ChatRequest struct {
	Message   string                 `json:"message"`
	Context   []string               `json:"context,omitempty"`
	SessionId string                 `json:"sessionId,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

type ChatResponse struct {
	Message            string      `json:"message"`
	Error              string      `json:"error,omitempty"`
	Code               string      `json:"code,omitempty"`
	SuggestedQuestions []string    `json:"suggestedQuestions,omitempty"`
	Confidence         *float64    `json:"confidence,omitempty"`
	FactChecked        bool        `json:"factChecked,omitempty"`
	IsFaq              bool        `json:"isFaq,omitempty"`
	IsWebSearch        bool        `json:"isWebSearch,omitempty"`
	NeedsWebSearch     bool        `json:"needsWebSearch,omitempty"`
	WebSearchResults   []WebResult `json:"webSearchResults,omitempty"`
	Timestamp          time.Time   `json:"timestamp"`
	RequestId          string      `json:"requestId"`
}

type SearchRequest struct {
	Query   string   `json:"query"`
	Context []string `json:"context,omitempty"`
}

type SearchResponse struct {
	Message            string      `json:"message"`
	IsWebSearch        bool        `json:"isWebSearch"`
	WebSearchResults   []WebResult `json:"webSearchResults,omitempty"`
	Confidence         *float64    `json:"confidence,omitempty"`
	Error              string      `json:"error,omitempty"`
	Code               string      `json:"code,omitempty"`
	SuggestedQuestions []string    `json:"suggestedQuestions,omitempty"`
	Timestamp          time.Time   `json:"timestamp"`
	RequestId          string      `json:"requestId"`
}

type AnalyticsRequest struct {
	Event     string                 `json:"event"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp *time.Time             `json:"timestamp,omitempty"`
}
