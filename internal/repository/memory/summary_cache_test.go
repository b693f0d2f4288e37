package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSummaryCache_SaveAndGet(t *testing.T) {
	c := NewSummaryCache(time.Minute)
	sessionID, newest := uuid.New(), uuid.New()

	_, ok := c.Get(sessionID, newest)
	assert.False(t, ok)

	c.Save(sessionID, newest, "a summary")
	got, ok := c.Get(sessionID, newest)
	assert.True(t, ok)
	assert.Equal(t, "a summary", got)
	assert.Equal(t, 1, c.Len())
}

func TestSummaryCache_NewerMessageMisses(t *testing.T) {
	c := NewSummaryCache(time.Minute)
	sessionID := uuid.New()

	c.Save(sessionID, uuid.New(), "stale")
	_, ok := c.Get(sessionID, uuid.New())
	assert.False(t, ok)
}

func TestSummaryCache_Expires(t *testing.T) {
	c := NewSummaryCache(20 * time.Millisecond)
	sessionID, newest := uuid.New(), uuid.New()

	c.Save(sessionID, newest, "short lived")
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get(sessionID, newest)
	assert.False(t, ok)
}
