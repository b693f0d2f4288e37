package inproc

import (
	"context"
	"sync"
	"testing"
	"time"

	"career-counselor-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversMatchingEvents(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var all, logins []string
	require.NoError(t, bus.Subscribe(events.AllSubjects, "all", func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, e.EventType())
		return nil
	}))
	require.NoError(t, bus.Subscribe(events.SubjectPrefix+events.TypeUserLogin, "logins", func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		logins = append(logins, e.EventType())
		return nil
	}))

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, events.New(events.TypeUserRegistered, nil)))
	require.NoError(t, bus.Publish(ctx, events.New(events.TypeUserLogin, map[string]interface{}{"user_id": "u-1"})))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(all) == 2 && len(logins) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{events.TypeUserRegistered, events.TypeUserLogin}, all)
	assert.Equal(t, []string{events.TypeUserLogin}, logins)
}
