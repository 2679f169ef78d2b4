package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	fastAcceptConfidence = 0.7
	fullAcceptConfidence = 0.6
	contextWindowSize    = 5
	analyticsTimeout     = 5 * time.Second

	searchingPlaceholder = "Searching the web for more up-to-date information..."
	connectionTrouble    = "I'm having trouble connecting right now. Please try again in a moment, or contact our team directly."
)

var ErrEmptyQuestion = errors.New("question is empty")

type Options struct {
	// BaseURL is the assistant API root, e.g. http://localhost:3000/api/assistant/v1.
	BaseURL       string
	UserSessionID string
	// StorageDir holds the session file; empty keeps history in memory only.
	StorageDir string
	HTTPClient *http.Client
	// MaxRetries defaults to 2 when zero; negative disables retries.
	MaxRetries   int
	RetryBackoff time.Duration
	Now          func() time.Time
}

// Manager is the client side of a conversation: history, context window,
// response cache and the local → full → web escalation.
type Manager struct {
	api     *apiClient
	cache   *responseCache
	storage *fileStorage
	now     func() time.Time

	mu        sync.Mutex
	session   Session
	listeners []func([]ChatMessage)
}

func NewManager(opts Options) (*Manager, error) {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UserSessionID == "" {
		opts.UserSessionID = uuid.NewString()
	}

	m := &Manager{
		api: &apiClient{
			baseURL: strings.TrimRight(opts.BaseURL, "/"),
			http:    opts.HTTPClient,
			retries: opts.MaxRetries,
			backoff: opts.RetryBackoff,
		},
		cache:   newResponseCache(opts.Now),
		storage: newFileStorage(opts.StorageDir, opts.UserSessionID),
		now:     opts.Now,
	}

	stored, err := m.storage.load()
	if err != nil {
		return nil, err
	}
	if stored != nil {
		m.session = *stored
	} else {
		m.session = m.newSession(opts.UserSessionID)
	}
	return m, nil
}

func (m *Manager) newSession(userSessionID string) Session {
	return Session{
		ConversationID: uuid.NewString(),
		UserSessionID:  userSessionID,
		CreatedAt:      m.now().UTC(),
	}
}

// OnChange registers a listener called with the full history after every change.
func (m *Manager) OnChange(listener func([]ChatMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

func (m *Manager) Messages() []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatMessage(nil), m.session.Messages...)
}

func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ConversationID
}

// ContextWindow returns the newest user messages, oldest first.
func (m *Manager) ContextWindow() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contextWindowLocked()
}

func (m *Manager) contextWindowLocked() []string {
	var out []string
	for i := len(m.session.Messages) - 1; i >= 0 && len(out) < contextWindowSize; i-- {
		msg := m.session.Messages[i]
		if msg.Role == RoleUser {
			out = append(out, msg.Content)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Reset starts a new conversation and forgets cached answers.
func (m *Manager) Reset() error {
	m.mu.Lock()
	m.session = m.newSession(m.session.UserSessionID)
	m.mu.Unlock()
	m.cache.flush()
	return m.persistAndNotify()
}

// Ask sends text through the escalation tiers and returns the assistant reply
// that was appended to the history. Failures become an error reply, never an error.
func (m *Manager) Ask(ctx context.Context, text string) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, ErrEmptyQuestion
	}

	m.mu.Lock()
	history := m.contextWindowLocked()
	conversationID := m.session.ConversationID
	m.appendLocked(ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: m.now().UTC(),
	})
	m.mu.Unlock()
	_ = m.persistAndNotify()

	key := cacheKey(text)
	if cached, ok := m.cache.get(key); ok {
		return m.appendReply(cached), nil
	}

	reply := m.resolve(ctx, key, &ChatRequest{
		Message:   text,
		Context:   history,
		SessionId: conversationID,
	})
	if !reply.IsError {
		m.cache.set(key, reply)
	}
	return m.appendReply(reply), nil
}

func (m *Manager) resolve(ctx context.Context, key string, req *ChatRequest) ChatMessage {
	var fast ChatResponse
	fastStatus, fastErr := m.api.post(ctx, "/chat/local", req, &fast)
	if fastErr == nil && fastStatus == http.StatusOK && acceptable(&fast, fastAcceptConfidence) && !fast.NeedsWebSearch {
		return fromChat(&fast, false)
	}

	var full ChatResponse
	fullStatus, fullErr := m.api.post(ctx, "/chat", req, &full)
	if fullErr != nil {
		if fastErr == nil && strings.TrimSpace(fast.Message) != "" {
			return fromChat(&fast, fastStatus != http.StatusOK)
		}
		return m.troubleReply()
	}
	if fullStatus != http.StatusOK {
		return fromChat(&full, true)
	}
	if acceptable(&full, fullAcceptConfidence) {
		return fromChat(&full, false)
	}

	if web, ok := m.searchWeb(ctx, key, req); ok {
		return web
	}
	return fromChat(&full, false)
}

// searchWeb shows a placeholder while the web-search endpoint runs.
func (m *Manager) searchWeb(ctx context.Context, key string, req *ChatRequest) (ChatMessage, bool) {
	webKey := webKeyPrefix + key
	if cached, ok := m.cache.get(webKey); ok {
		return cached, true
	}

	placeholderID := m.showPlaceholder()
	defer m.removePlaceholder(placeholderID)

	var res SearchResponse
	status, err := m.api.post(ctx, "/search", &SearchRequest{
		Query:   truncate(req.Message, 100),
		Context: req.Context,
	}, &res)
	if err != nil || status != http.StatusOK || strings.TrimSpace(res.Message) == "" || res.Code != "" {
		return ChatMessage{}, false
	}

	msg := ChatMessage{
		ID:                 uuid.NewString(),
		Role:               RoleAssistant,
		Content:            res.Message,
		Timestamp:          m.now().UTC(),
		Confidence:         res.Confidence,
		SuggestedQuestions: res.SuggestedQuestions,
		WebSearchResults:   res.WebSearchResults,
		IsWebSearch:        true,
	}
	m.cache.set(webKey, msg)
	return msg, true
}

func (m *Manager) showPlaceholder() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.appendLocked(ChatMessage{
		ID:            id,
		Role:          RoleAssistant,
		Content:       searchingPlaceholder,
		Timestamp:     m.now().UTC(),
		IsPlaceholder: true,
	})
	m.mu.Unlock()
	m.notify()
	return id
}

func (m *Manager) removePlaceholder(id string) {
	m.mu.Lock()
	kept := m.session.Messages[:0]
	for _, msg := range m.session.Messages {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	m.session.Messages = kept
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) appendReply(reply ChatMessage) ChatMessage {
	reply.ID = uuid.NewString()
	reply.Timestamp = m.now().UTC()

	m.mu.Lock()
	m.appendLocked(reply)
	m.mu.Unlock()
	_ = m.persistAndNotify()
	return reply
}

// appendLocked must be called with mu held. History is capped in memory the
// same way it is on disk.
func (m *Manager) appendLocked(msg ChatMessage) {
	m.session.Messages = append(m.session.Messages, msg)
	if over := len(m.session.Messages) - maxStoredMessages; over > 0 {
		m.session.Messages = append([]ChatMessage(nil), m.session.Messages[over:]...)
	}
}

func (m *Manager) troubleReply() ChatMessage {
	return ChatMessage{
		Role:    RoleAssistant,
		Content: connectionTrouble,
		IsError: true,
	}
}

// Track posts a client analytics event in the background.
func (m *Manager) Track(event string, payload map[string]interface{}) {
	ts := m.now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
		defer cancel()
		api := *m.api
		api.retries = 0
		_, _ = api.post(ctx, "/analytics", &AnalyticsRequest{
			Event:     event,
			Payload:   payload,
			Timestamp: &ts,
		}, nil)
	}()
}

func (m *Manager) persistAndNotify() error {
	m.mu.Lock()
	snapshot := m.session
	snapshot.Messages = append([]ChatMessage(nil), m.session.Messages...)
	m.mu.Unlock()

	err := m.storage.save(snapshot)
	m.notify()
	return err
}

func (m *Manager) notify() {
	m.mu.Lock()
	listeners := append([]func([]ChatMessage){}, m.listeners...)
	messages := append([]ChatMessage(nil), m.session.Messages...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(messages)
	}
}

func acceptable(res *ChatResponse, threshold float64) bool {
	return strings.TrimSpace(res.Message) != "" && confidenceOf(res.Confidence) >= threshold
}

func fromChat(res *ChatResponse, isError bool) ChatMessage {
	return ChatMessage{
		Role:               RoleAssistant,
		Content:            res.Message,
		Confidence:         res.Confidence,
		SuggestedQuestions: res.SuggestedQuestions,
		WebSearchResults:   res.WebSearchResults,
		IsWebSearch:        res.IsWebSearch,
		IsError:            isError,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
