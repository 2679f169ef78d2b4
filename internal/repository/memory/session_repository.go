package memory

import (
	"sync"
	"time"

	"atlas-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps the recent user messages of each chat session.
// Sessions expire one hour after their last message.
type SessionRepository struct {
	mu     sync.Mutex
	cache  *cache.Cache
	window int
}

func NewSessionRepository(window int) *SessionRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache:  c,
		window: window,
	}
}

// Append records message and returns the session's context window after the append.
func (r *SessionRepository) Append(sessionID, message string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv := &store.ConversationContext{SessionID: sessionID}
	if x, found := r.cache.Get(sessionID); found {
		conv = x.(*store.ConversationContext)
	}

	messages := append(append([]string(nil), conv.Messages...), message)
	if len(messages) > r.window {
		messages = messages[len(messages)-r.window:]
	}

	r.cache.Set(sessionID, &store.ConversationContext{
		SessionID: sessionID,
		Messages:  messages,
		UpdatedAt: time.Now(),
	}, cache.DefaultExpiration)

	return append([]string(nil), messages...)
}

// Recent returns a copy of the stored context window, oldest first.
func (r *SessionRepository) Recent(sessionID string) []string {
	if conv, ok := r.Get(sessionID); ok {
		return append([]string(nil), conv.Messages...)
	}
	return nil
}

func (r *SessionRepository) Get(sessionID string) (*store.ConversationContext, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.ConversationContext), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
