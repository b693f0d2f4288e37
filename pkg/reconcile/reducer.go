package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSendInFlight = errors.New("reconcile: a message is already sending in this session")
	ErrUnknownItem  = errors.New("reconcile: unknown pending item")
	ErrDuplicateID  = errors.New("reconcile: duplicate local id")
	ErrEmptyContent = errors.New("reconcile: message content is empty")
)

// State is the set of pending items in submission order.
type State struct {
	Pending []Pending
}

type Action interface {
	isAction()
}

type Submit struct {
	LocalID   string
	SessionID uuid.UUID
	Content   string
	At        time.Time
}

type Succeeded struct {
	LocalID string
}

type Failed struct {
	LocalID         string
	Err             string
	ServerMessageID *uuid.UUID
}

type Retry struct {
	LocalID string
}

type Discard struct {
	LocalID string
}

func (Submit) isAction()    {}
func (Succeeded) isAction() {}
func (Failed) isAction()    {}
func (Retry) isAction()     {}
func (Discard) isAction()   {}

// SendRequest is what the client must post for a sending item.
type SendRequest struct {
	Content          string     `json:"content"`
	ChatSessionID    uuid.UUID  `json:"chat_session_id"`
	IsRetry          bool       `json:"is_retry"`
	RetryOfMessageID *uuid.UUID `json:"retry_of_message_id,omitempty"`
}

// Reduce applies action to state and returns the next state. The input
// state is never modified. On error the input state is returned unchanged.
func Reduce(state State, action Action) (State, error) {
	switch a := action.(type) {
	case Submit:
		return submit(state, a)
	case Succeeded:
		return update(state, a.LocalID, func(p Pending) (*Pending, error) {
			if _, err := transition(p.Status, triggerSucceed); err != nil {
				return nil, err
			}
			// Server truth replaces the optimistic copy.
			return nil, nil
		})
	case Failed:
		return update(state, a.LocalID, func(p Pending) (*Pending, error) {
			next, err := transition(p.Status, triggerFail)
			if err != nil {
				return nil, err
			}
			p.Status = next
			p.Error = a.Err
			if a.ServerMessageID != nil {
				id := *a.ServerMessageID
				p.ServerMessageID = &id
			}
			return &p, nil
		})
	case Retry:
		idx := indexOf(state, a.LocalID)
		if idx < 0 {
			return state, fmt.Errorf("%w: %s", ErrUnknownItem, a.LocalID)
		}
		if sendingIn(state, state.Pending[idx].SessionID) {
			return state, ErrSendInFlight
		}
		return update(state, a.LocalID, func(p Pending) (*Pending, error) {
			next, err := transition(p.Status, triggerRetry)
			if err != nil {
				return nil, err
			}
			p.Status = next
			p.Error = ""
			p.Attempts++
			return &p, nil
		})
	case Discard:
		if indexOf(state, a.LocalID) < 0 {
			return state, fmt.Errorf("%w: %s", ErrUnknownItem, a.LocalID)
		}
		return update(state, a.LocalID, func(p Pending) (*Pending, error) {
			if p.Status == StatusSending {
				return nil, fmt.Errorf("%w: cannot discard a sending item", ErrIllegalTransition)
			}
			return nil, nil
		})
	default:
		return state, fmt.Errorf("reconcile: unsupported action %T", action)
	}
}

func submit(state State, a Submit) (State, error) {
	if strings.TrimSpace(a.Content) == "" {
		return state, ErrEmptyContent
	}
	if indexOf(state, a.LocalID) >= 0 {
		return state, fmt.Errorf("%w: %s", ErrDuplicateID, a.LocalID)
	}
	if sendingIn(state, a.SessionID) {
		return state, ErrSendInFlight
	}

	next := State{Pending: make([]Pending, 0, len(state.Pending)+1)}
	next.Pending = append(next.Pending, state.Pending...)
	next.Pending = append(next.Pending, Pending{
		LocalID:   a.LocalID,
		SessionID: a.SessionID,
		Content:   a.Content,
		Status:    StatusSending,
		CreatedAt: a.At,
	})
	return next, nil
}

// update rewrites the item localID with fn. A nil result removes it.
func update(state State, localID string, fn func(Pending) (*Pending, error)) (State, error) {
	idx := indexOf(state, localID)
	if idx < 0 {
		return state, fmt.Errorf("%w: %s", ErrUnknownItem, localID)
	}

	replaced, err := fn(state.Pending[idx])
	if err != nil {
		return state, err
	}

	next := State{Pending: make([]Pending, 0, len(state.Pending))}
	next.Pending = append(next.Pending, state.Pending[:idx]...)
	if replaced != nil {
		next.Pending = append(next.Pending, *replaced)
	}
	next.Pending = append(next.Pending, state.Pending[idx+1:]...)
	return next, nil
}

func indexOf(state State, localID string) int {
	for i, p := range state.Pending {
		if p.LocalID == localID {
			return i
		}
	}
	return -1
}

func sendingIn(state State, sessionID uuid.UUID) bool {
	for _, p := range state.Pending {
		if p.SessionID == sessionID && p.Status == StatusSending {
			return true
		}
	}
	return false
}

// Find returns the pending item with localID.
func (s State) Find(localID string) (Pending, bool) {
	if idx := indexOf(s, localID); idx >= 0 {
		return s.Pending[idx], true
	}
	return Pending{}, false
}

// ForSession returns the pending items of one session in submission order.
func (s State) ForSession(sessionID uuid.UUID) []Pending {
	out := make([]Pending, 0)
	for _, p := range s.Pending {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

// RequestFor builds the send request for a sending item. A retried item
// points the server at the user turn it already stored.
func (s State) RequestFor(localID string) (SendRequest, error) {
	p, ok := s.Find(localID)
	if !ok {
		return SendRequest{}, fmt.Errorf("%w: %s", ErrUnknownItem, localID)
	}
	if p.Status != StatusSending {
		return SendRequest{}, fmt.Errorf("%w: item is %s", ErrIllegalTransition, p.Status)
	}

	req := SendRequest{
		Content:       p.Content,
		ChatSessionID: p.SessionID,
		IsRetry:       p.Attempts > 0,
	}
	if req.IsRetry && p.ServerMessageID != nil {
		id := *p.ServerMessageID
		req.RetryOfMessageID = &id
	}
	return req, nil
}
