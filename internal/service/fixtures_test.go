package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/repository/contract"
	"career-counselor-be/internal/repository/memory"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/database"
	"career-counselor-be/pkg/events"
	"career-counselor-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errProviderDown = errors.New("provider down")

// fakeLLM replays scripted replies and records every prompt it receives.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   [][]llm.Message
	options []llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := make([]llm.Message, len(history))
	copy(prompt, history)
	f.calls = append(f.calls, prompt)
	f.options = append(f.options, llm.Apply(llm.Options{}, opts...))

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(f.replies) == 0 {
		return "Here is some career advice.", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLLM) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// recordingPublisher keeps published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// stepClock advances one millisecond per reading so rows never tie.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type testEnv struct {
	uowFactory unitofwork.RepositoryFactory
	llm        *fakeLLM
	publisher  *recordingPublisher
	clock      *stepClock
	sessions   *chatSessionService
	messages   *chatMessageService
	tokens     *TokenIssuer
	log        logger.ILogger
}

func newTestEnv(t *testing.T, opts ChatOptions) *testEnv {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokens, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		uowFactory: unitofwork.NewRepositoryFactory(db),
		tokens:     tokens,
		llm:        &fakeLLM{},
		publisher:  &recordingPublisher{},
		clock:      newStepClock(),
		log:        logger.NewNopLogger(),
	}

	env.sessions = NewChatSessionService(env.uowFactory, env.publisher, env.log).(*chatSessionService)
	env.sessions.now = env.clock.Now

	env.messages = NewChatMessageService(
		env.uowFactory,
		NewHistoryFetcher(env.uowFactory),
		NewCompletionClient(env.llm, env.log),
		memory.NewSummaryCache(time.Minute),
		env.publisher,
		env.log,
		opts,
	).(*chatMessageService)
	env.messages.now = env.clock.Now

	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	user := &entity.User{
		Id:        uuid.New(),
		Name:      "Test User",
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.uowFactory.NewUnitOfWork(context.Background()).UserRepository().Create(context.Background(), user))
	return user
}

func (e *testEnv) createSession(t *testing.T, userId uuid.UUID, title string) uuid.UUID {
	t.Helper()
	session := &entity.ChatSession{
		Id:        newTimeOrderedID(),
		UserId:    userId,
		Title:     title,
		IsActive:  true,
		CreatedAt: e.clock.Now(),
	}
	session.UpdatedAt = session.CreatedAt
	require.NoError(t, e.uowFactory.NewUnitOfWork(context.Background()).ChatSessionRepository().Create(context.Background(), session))
	return session.Id
}

func (e *testEnv) insertMessage(t *testing.T, sessionId uuid.UUID, role entity.MessageRole, content string) *entity.Message {
	t.Helper()
	msg := &entity.Message{
		Id:            newTimeOrderedID(),
		ChatSessionId: sessionId,
		Role:          role,
		Content:       content,
		CreatedAt:     e.clock.Now(),
	}
	require.NoError(t, e.uowFactory.NewUnitOfWork(context.Background()).MessageRepository().Create(context.Background(), msg))
	return msg
}

func (e *testEnv) countMessages(t *testing.T, sessionId uuid.UUID) int64 {
	t.Helper()
	counts, err := e.uowFactory.NewUnitOfWork(context.Background()).MessageRepository().CountBySessionIDs(context.Background(), []uuid.UUID{sessionId})
	require.NoError(t, err)
	return counts[sessionId]
}

// staleLookupFactory hides existing users from the first email lookups, as
// if a concurrent request inserted the row right after the lookup ran.
type staleLookupFactory struct {
	unitofwork.RepositoryFactory
	hidden *atomic.Int32
}

func newStaleLookupFactory(inner unitofwork.RepositoryFactory, lookups int32) staleLookupFactory {
	hidden := &atomic.Int32{}
	hidden.Store(lookups)
	return staleLookupFactory{RepositoryFactory: inner, hidden: hidden}
}

func (f staleLookupFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return staleLookupUnitOfWork{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), hidden: f.hidden}
}

type staleLookupUnitOfWork struct {
	unitofwork.UnitOfWork
	hidden *atomic.Int32
}

func (u staleLookupUnitOfWork) UserRepository() contract.UserRepository {
	return staleUserRepository{UserRepository: u.UnitOfWork.UserRepository(), hidden: u.hidden}
}

type staleUserRepository struct {
	contract.UserRepository
	hidden *atomic.Int32
}

func (r staleUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	if r.hidden.Add(-1) >= 0 {
		return nil, nil
	}
	return r.UserRepository.FindOne(ctx, specs...)
}

func (e *testEnv) countUsers(t *testing.T, email string) int64 {
	t.Helper()
	ctx := context.Background()
	n, err := e.uowFactory.NewUnitOfWork(ctx).UserRepository().Count(ctx, specification.ByEmail{Email: email})
	require.NoError(t, err)
	return n
}
