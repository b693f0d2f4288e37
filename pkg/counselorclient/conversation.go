package counselorclient

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"career-counselor-be/pkg/reconcile"

	"github.com/google/uuid"
)

// Conversation drives one session through the reconcile reducer: every
// send is optimistic and a failed send can be retried or discarded.
type Conversation struct {
	client    *Client
	sessionID uuid.UUID

	mu     sync.Mutex
	state  reconcile.State
	server []reconcile.Message
	now    func() time.Time
}

func NewConversation(client *Client, sessionID uuid.UUID) *Conversation {
	return &Conversation{
		client:    client,
		sessionID: sessionID,
		now:       time.Now,
	}
}

func (c *Conversation) dispatch(action reconcile.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := reconcile.Reduce(c.state, action)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Refresh reloads the newest page of server messages.
func (c *Conversation) Refresh(ctx context.Context, limit int) error {
	page, err := c.client.ListMessages(ctx, c.sessionID, limit, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.server = page.Messages
	c.mu.Unlock()
	return nil
}

// Send submits content and waits for the reply.
func (c *Conversation) Send(ctx context.Context, content string) (string, error) {
	localID := uuid.NewString()
	if err := c.dispatch(reconcile.Submit{LocalID: localID, SessionID: c.sessionID, Content: content, At: c.now()}); err != nil {
		return "", err
	}
	return localID, c.deliver(ctx, localID)
}

// Retry resends a failed item against the user turn the server stored.
func (c *Conversation) Retry(ctx context.Context, localID string) error {
	if err := c.dispatch(reconcile.Retry{LocalID: localID}); err != nil {
		return err
	}
	return c.deliver(ctx, localID)
}

func (c *Conversation) Discard(localID string) error {
	return c.dispatch(reconcile.Discard{LocalID: localID})
}

func (c *Conversation) deliver(ctx context.Context, localID string) error {
	c.mu.Lock()
	req, err := c.state.RequestFor(localID)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	res, sendErr := c.client.Send(ctx, req)
	if sendErr != nil {
		failed := reconcile.Failed{LocalID: localID, Err: sendErr.Error()}
		var apiErr *APIError
		if errors.As(sendErr, &apiErr) && apiErr.UserMessage != nil {
			id := apiErr.UserMessage.ID
			failed.ServerMessageID = &id
		}
		if err := c.dispatch(failed); err != nil {
			return err
		}
		return sendErr
	}

	if err := c.dispatch(reconcile.Succeeded{LocalID: localID}); err != nil {
		return err
	}
	c.mu.Lock()
	c.server = appendUnique(c.server, res.UserMessage, res.AiMessage)
	c.mu.Unlock()
	return nil
}

func appendUnique(list []reconcile.Message, msgs ...reconcile.Message) []reconcile.Message {
	seen := make(map[uuid.UUID]struct{}, len(list))
	for _, m := range list {
		seen[m.ID] = struct{}{}
	}
	for _, m := range msgs {
		if _, ok := seen[m.ID]; !ok {
			list = append(list, m)
			seen[m.ID] = struct{}{}
		}
	}
	// A retried turn keeps its original timestamp.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Transcript is the merged view to render.
func (c *Conversation) Transcript() []reconcile.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return reconcile.Merge(c.server, c.state.ForSession(c.sessionID))
}

// Failed lists the items waiting for a retry or discard.
func (c *Conversation) Failed() []reconcile.Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []reconcile.Pending
	for _, p := range c.state.ForSession(c.sessionID) {
		if p.Status == reconcile.StatusFailed {
			out = append(out, p)
		}
	}
	return out
}
