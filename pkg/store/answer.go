package store

import "time"

// Query is a sanitized inbound question. It is never persisted beyond the request.
type Query struct {
	Text      string                 `json:"text"`
	Context   []string               `json:"context,omitempty"` // at most five recent messages, oldest first
	SessionID string                 `json:"session_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// WebResult is a single filtered and scored search hit.
type WebResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source"` // host of URL, without "www."
	Score   float64 `json:"score"`
}

// CandidateAnswer is the value passed between pipeline stages. Stages return
// a modified copy instead of mutating the caller's value.
type CandidateAnswer struct {
	Message            string      `json:"message"`
	Confidence         float64     `json:"confidence"`
	IsWebSearch        bool        `json:"is_web_search"`
	FactChecked        bool        `json:"fact_checked"`
	IsFAQ              bool        `json:"is_faq"`
	ShouldUseWebSearch bool        `json:"should_use_web_search"`
	SuggestedQuestions []string    `json:"suggested_questions,omitempty"` // at most four
	WebSearchResults   []WebResult `json:"web_search_results,omitempty"`
	MatchedID          string      `json:"matched_id,omitempty"`
}

// Clone returns a deep copy so slice fields can be modified safely.
func (a CandidateAnswer) Clone() CandidateAnswer {
	out := a
	if a.SuggestedQuestions != nil {
		out.SuggestedQuestions = append([]string(nil), a.SuggestedQuestions...)
	}
	if a.WebSearchResults != nil {
		out.WebSearchResults = append([]WebResult(nil), a.WebSearchResults...)
	}
	return out
}

// HasMessage reports whether the answer carries renderable text.
func (a CandidateAnswer) HasMessage() bool {
	for _, r := range a.Message {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}

// ConversationContext is the server-side record of recent user messages for a session.
type ConversationContext struct {
	SessionID string    `json:"session_id"`
	Messages  []string  `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}
