package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SummaryCache remembers conversation summaries. Entries are keyed by the
// newest message of the transcript, so a new turn naturally misses.
type SummaryCache struct {
	cache *cache.Cache
}

func NewSummaryCache(ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SummaryCache{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func summaryKey(sessionID, newestMessageID uuid.UUID) string {
	return sessionID.String() + ":" + newestMessageID.String()
}

func (c *SummaryCache) Save(sessionID, newestMessageID uuid.UUID, summary string) {
	c.cache.Set(summaryKey(sessionID, newestMessageID), summary, cache.DefaultExpiration)
}

func (c *SummaryCache) Get(sessionID, newestMessageID uuid.UUID) (string, bool) {
	if x, found := c.cache.Get(summaryKey(sessionID, newestMessageID)); found {
		return x.(string), true
	}
	return "", false
}

func (c *SummaryCache) Len() int {
	return c.cache.ItemCount()
}
