package client

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	ID                 string      `json:"id"`
	Role               Role        `json:"role"`
	Content            string      `json:"content"`
	Timestamp          time.Time   `json:"timestamp"`
	Confidence         *float64    `json:"confidence,omitempty"`
	SuggestedQuestions []string    `json:"suggestedQuestions,omitempty"`
	WebSearchResults   []WebResult `json:"webSearchResults,omitempty"`
	IsWebSearch        bool        `json:"isWebSearch,omitempty"`
	IsError            bool        `json:"isError,omitempty"`
	IsPlaceholder      bool        `json:"isPlaceholder,omitempty"`
}

// Session is the persisted conversation of one user on one client.
type Session struct {
	ConversationID string        `json:"conversationId"`
	UserSessionID  string        `json:"userSessionId"`
	Messages       []ChatMessage `json:"messages"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func confidenceOf(c *float64) float64 {
	if c == nil {
		return 0
	}
	return *c
}
