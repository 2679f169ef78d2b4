package client

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	answerFreshness = 5 * time.Minute
	webFreshness    = 3 * time.Minute
	cacheMaxAge     = 30 * time.Minute
	cacheSweep      = 5 * time.Minute
	webKeyPrefix    = "web_"
)

type cachedAnswer struct {
	message  ChatMessage
	cachedAt time.Time
}

// responseCache remembers answers by normalized question. The janitor evicts
// entries after cacheMaxAge; reads apply the shorter freshness windows.
type responseCache struct {
	items *cache.Cache
	now   func() time.Time
}

func newResponseCache(now func() time.Time) *responseCache {
	return &responseCache{
		items: cache.New(cacheMaxAge, cacheSweep),
		now:   now,
	}
}

func (c *responseCache) get(key string) (ChatMessage, bool) {
	freshness := answerFreshness
	if strings.HasPrefix(key, webKeyPrefix) {
		freshness = webFreshness
	}

	x, found := c.items.Get(key)
	if !found {
		return ChatMessage{}, false
	}
	entry := x.(cachedAnswer)
	if c.now().Sub(entry.cachedAt) >= freshness {
		return ChatMessage{}, false
	}
	return entry.message, true
}

func (c *responseCache) set(key string, msg ChatMessage) {
	c.items.SetDefault(key, cachedAnswer{message: msg, cachedAt: c.now()})
}

func (c *responseCache) flush() {
	c.items.Flush()
}

// cacheKey folds case, whitespace and trailing punctuation so trivially
// different phrasings share an entry.
func cacheKey(text string) string {
	key := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	return strings.TrimRight(key, "?!. ")
}
