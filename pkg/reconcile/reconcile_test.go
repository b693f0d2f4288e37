package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func mustReduce(t *testing.T, s State, actions ...Action) State {
	t.Helper()
	for _, a := range actions {
		var err error
		s, err = Reduce(s, a)
		require.NoError(t, err)
	}
	return s
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    Status
		trigger trigger
		to      Status
		ok      bool
	}{
		{StatusSending, triggerSucceed, StatusSuccess, true},
		{StatusSending, triggerFail, StatusFailed, true},
		{StatusFailed, triggerRetry, StatusSending, true},
		{StatusSending, triggerRetry, StatusSending, false},
		{StatusFailed, triggerSucceed, StatusFailed, false},
		{StatusFailed, triggerFail, StatusFailed, false},
		{StatusSuccess, triggerRetry, StatusSuccess, false},
		{StatusSuccess, triggerFail, StatusSuccess, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			got, err := transition(tt.from, tt.trigger)
			if tt.ok {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
			assert.Equal(t, tt.to, got)
		})
	}
}

func TestReduce_SubmitSucceed(t *testing.T) {
	session := uuid.New()
	s := mustReduce(t, State{}, Submit{LocalID: "a", SessionID: session, Content: "hi", At: at(0)})

	require.Len(t, s.Pending, 1)
	assert.Equal(t, StatusSending, s.Pending[0].Status)

	req, err := s.RequestFor("a")
	require.NoError(t, err)
	assert.Equal(t, SendRequest{Content: "hi", ChatSessionID: session}, req)

	s = mustReduce(t, s, Succeeded{LocalID: "a"})
	assert.Empty(t, s.Pending)
}

func TestReduce_SubmitRejectedWhileSending(t *testing.T) {
	session := uuid.New()
	s := mustReduce(t, State{}, Submit{LocalID: "a", SessionID: session, Content: "one", At: at(0)})

	next, err := Reduce(s, Submit{LocalID: "b", SessionID: session, Content: "two", At: at(1)})
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.Equal(t, s, next)

	// Other sessions are independent.
	next, err = Reduce(s, Submit{LocalID: "c", SessionID: uuid.New(), Content: "three", At: at(1)})
	require.NoError(t, err)
	assert.Len(t, next.Pending, 2)
}

func TestReduce_SubmitValidation(t *testing.T) {
	session := uuid.New()
	_, err := Reduce(State{}, Submit{LocalID: "a", SessionID: session, Content: "   ", At: at(0)})
	assert.ErrorIs(t, err, ErrEmptyContent)

	s := mustReduce(t, State{},
		Submit{LocalID: "a", SessionID: session, Content: "x", At: at(0)},
		Failed{LocalID: "a", Err: "boom"},
	)
	_, err = Reduce(s, Submit{LocalID: "a", SessionID: session, Content: "y", At: at(1)})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestReduce_FailRetrySucceed(t *testing.T) {
	session := uuid.New()
	serverID := uuid.New()

	s := mustReduce(t, State{},
		Submit{LocalID: "a", SessionID: session, Content: "help", At: at(0)},
		Failed{LocalID: "a", Err: "upstream", ServerMessageID: &serverID},
	)
	p, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, "upstream", p.Error)
	assert.Equal(t, serverID, *p.ServerMessageID)

	_, err := s.RequestFor("a")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s = mustReduce(t, s, Retry{LocalID: "a"})
	p, _ = s.Find("a")
	assert.Equal(t, StatusSending, p.Status)
	assert.Empty(t, p.Error)

	req, err := s.RequestFor("a")
	require.NoError(t, err)
	assert.True(t, req.IsRetry)
	assert.Equal(t, "help", req.Content)
	require.NotNil(t, req.RetryOfMessageID)
	assert.Equal(t, serverID, *req.RetryOfMessageID)

	s = mustReduce(t, s, Succeeded{LocalID: "a"})
	assert.Empty(t, s.Pending)
}

func TestReduce_IllegalActions(t *testing.T) {
	session := uuid.New()
	sending := mustReduce(t, State{}, Submit{LocalID: "a", SessionID: session, Content: "x", At: at(0)})
	failed := mustReduce(t, sending, Failed{LocalID: "a", Err: "e"})

	tests := []struct {
		name   string
		state  State
		action Action
		err    error
	}{
		{"retry while sending", sending, Retry{LocalID: "a"}, ErrSendInFlight},
		{"succeed a failed item", failed, Succeeded{LocalID: "a"}, ErrIllegalTransition},
		{"fail a failed item", failed, Failed{LocalID: "a"}, ErrIllegalTransition},
		{"discard while sending", sending, Discard{LocalID: "a"}, ErrIllegalTransition},
		{"unknown item", sending, Succeeded{LocalID: "zzz"}, ErrUnknownItem},
		{"discard unknown", sending, Discard{LocalID: "zzz"}, ErrUnknownItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Reduce(tt.state, tt.action)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestReduce_RetryBlockedByOtherSendInSameSession(t *testing.T) {
	session := uuid.New()
	s := mustReduce(t, State{},
		Submit{LocalID: "a", SessionID: session, Content: "first", At: at(0)},
		Failed{LocalID: "a", Err: "e"},
		Submit{LocalID: "b", SessionID: session, Content: "second", At: at(1)},
	)

	_, err := Reduce(s, Retry{LocalID: "a"})
	assert.ErrorIs(t, err, ErrSendInFlight)
}

func TestReduce_Discard(t *testing.T) {
	session := uuid.New()
	s := mustReduce(t, State{},
		Submit{LocalID: "a", SessionID: session, Content: "x", At: at(0)},
		Failed{LocalID: "a", Err: "e"},
		Discard{LocalID: "a"},
	)
	assert.Empty(t, s.Pending)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	session := uuid.New()
	s := mustReduce(t, State{}, Submit{LocalID: "a", SessionID: session, Content: "x", At: at(0)})
	before := append([]Pending(nil), s.Pending...)

	_, err := Reduce(s, Failed{LocalID: "a", Err: "e"})
	require.NoError(t, err)
	assert.Equal(t, before, s.Pending)
}

func TestState_ForSession(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := mustReduce(t, State{},
		Submit{LocalID: "1", SessionID: a, Content: "x", At: at(0)},
		Submit{LocalID: "2", SessionID: b, Content: "y", At: at(1)},
	)
	got := s.ForSession(a)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].LocalID)
}

func TestMerge_InterleavesByTime(t *testing.T) {
	session := uuid.New()
	server := []Message{
		{ID: uuid.New(), ChatSessionID: session, Role: RoleUser, Content: "q1", CreatedAt: at(0)},
		{ID: uuid.New(), ChatSessionID: session, Role: RoleAssistant, Content: "a1", CreatedAt: at(2)},
	}
	pending := []Pending{
		{LocalID: "p", SessionID: session, Content: "q2", Status: StatusSending, CreatedAt: at(5)},
	}

	items := Merge(server, pending)
	require.Len(t, items, 3)
	assert.Equal(t, "q1", items[0].(Confirmed).Message.Content)
	assert.Equal(t, "a1", items[1].(Confirmed).Message.Content)
	assert.Equal(t, "p", items[2].(Pending).LocalID)
}

func TestMerge_PendingBeforeLaterServerMessage(t *testing.T) {
	server := []Message{{ID: uuid.New(), Role: RoleAssistant, Content: "late", CreatedAt: at(10)}}
	pending := []Pending{{LocalID: "p", Status: StatusFailed, CreatedAt: at(3)}}

	items := Merge(server, pending)
	require.Len(t, items, 2)
	assert.IsType(t, Pending{}, items[0])
	assert.IsType(t, Confirmed{}, items[1])
}

func TestMerge_HidesServerCopyOfFailedTurn(t *testing.T) {
	stored := uuid.New()
	server := []Message{
		{ID: uuid.New(), Role: RoleUser, Content: "earlier", CreatedAt: at(0)},
		{ID: uuid.New(), Role: RoleAssistant, Content: "reply", CreatedAt: at(1)},
		{ID: stored, Role: RoleUser, Content: "lost", CreatedAt: at(4), Unanswered: true},
	}
	pending := []Pending{
		{LocalID: "p", Content: "lost", Status: StatusFailed, ServerMessageID: &stored, CreatedAt: at(4)},
	}

	items := Merge(server, pending)
	require.Len(t, items, 3)
	for _, item := range items {
		if c, ok := item.(Confirmed); ok {
			assert.NotEqual(t, stored, c.Message.ID)
		}
	}
	assert.Equal(t, "p", items[2].(Pending).LocalID)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
}
