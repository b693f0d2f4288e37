package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"career-counselor-be/internal/bootstrap"
	"career-counselor-be/internal/config"
	"career-counselor-be/internal/model"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/pkg/ratelimit"
	"career-counselor-be/pkg/database"
	"career-counselor-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	mu   sync.Mutex
	fail int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail > 0 {
		s.fail--
		return "", errors.New("model overloaded")
	}
	return "Consider informational interviews.", nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, opts...)
}

func (s *scriptedLLM) ModelName() string { return "scripted" }

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *testClient) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode(t *testing.T, raw json.RawMessage, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, out))
}

func newTestServer(t *testing.T, provider llm.LLMProvider, sendLimit int) *fiber.App {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	cfg := &config.Config{
		App:       config.AppConfig{Port: "0", CorsAllowedOrigins: "http://localhost:5173", EventBus: "memory"},
		Auth:      config.AuthConfig{JwtSecret: "server-test-secret", TokenTTL: time.Hour},
		Ai:        config.AIConfig{LLMProvider: "openai", HistoryLimit: 10, SummaryHistoryLimit: 20, SummaryCacheTTL: time.Minute},
		RateLimit: config.RateLimitConfig{SendMessages: sendLimit, Window: time.Minute},
	}

	container, err := bootstrap.NewContainer(db, cfg,
		bootstrap.WithLLMProvider(provider),
		bootstrap.WithLogger(logger.NewNopLogger()),
		bootstrap.WithActivityLogger(logger.NewNopLogger()),
		bootstrap.WithRateLimitCounter(ratelimit.NewMemoryCounter()),
	)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return New(cfg, container).GetApp()
}

func TestServer_ChatFlow(t *testing.T) {
	app := newTestServer(t, &scriptedLLM{fail: 1}, 3)
	c := &testClient{t: t, app: app}

	status, _ := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/api/chat/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env.Data, &login)
	require.NotEmpty(t, login.AccessToken)
	c.token = login.AccessToken

	status, env = c.do(http.MethodPost, "/api/chat/sessions", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, env = c.do(http.MethodPost, "/api/chat/sessions", map[string]string{"title": "Switching to UX"})
	require.Equal(t, http.StatusCreated, status)
	var session struct {
		Id string `json:"id"`
	}
	decode(t, env.Data, &session)

	// First attempt hits a model failure; the stored user turn comes back.
	status, env = c.do(http.MethodPost, "/api/chat/messages", map[string]interface{}{
		"chat_session_id": session.Id,
		"content":         "How do I build a UX portfolio?",
	})
	require.Equal(t, http.StatusBadGateway, status)
	var failure struct {
		UserMessage struct {
			Id string `json:"id"`
		} `json:"user_message"`
	}
	decode(t, env.Data, &failure)
	require.NotEmpty(t, failure.UserMessage.Id)

	status, env = c.do(http.MethodPost, "/api/chat/messages", map[string]interface{}{
		"chat_session_id":     session.Id,
		"content":             "How do I build a UX portfolio?",
		"is_retry":            true,
		"retry_of_message_id": failure.UserMessage.Id,
	})
	require.Equal(t, http.StatusOK, status)
	var sent struct {
		UserMessage struct {
			Id string `json:"id"`
		} `json:"user_message"`
		AiMessage struct {
			Content string `json:"content"`
		} `json:"ai_message"`
	}
	decode(t, env.Data, &sent)
	assert.Equal(t, failure.UserMessage.Id, sent.UserMessage.Id)
	assert.Equal(t, "Consider informational interviews.", sent.AiMessage.Content)

	status, env = c.do(http.MethodGet, "/api/chat/sessions/"+session.Id+"/messages?limit=1", nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Messages   []json.RawMessage `json:"messages"`
		NextCursor *string           `json:"next_cursor"`
		HasMore    bool              `json:"has_more"`
	}
	decode(t, env.Data, &page)
	assert.Len(t, page.Messages, 1)
	assert.NotNil(t, page.NextCursor)
	assert.True(t, page.HasMore)

	status, _ = c.do(http.MethodGet, "/api/chat/sessions/"+session.Id+"/messages?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.do(http.MethodGet, "/api/chat/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = c.do(http.MethodGet, "/api/chat/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Sessions []struct {
			Id           string `json:"id"`
			MessageCount int64  `json:"message_count"`
		} `json:"sessions"`
	}
	decode(t, env.Data, &list)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, int64(2), list.Sessions[0].MessageCount)

	status, _ = c.do(http.MethodDelete, "/api/chat/sessions/"+session.Id, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/api/chat/sessions/"+session.Id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_SendRateLimit(t *testing.T) {
	app := newTestServer(t, &scriptedLLM{}, 2)
	c := &testClient{t: t, app: app}

	status, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, env.Data, &login)
	c.token = login.AccessToken

	status, env = c.do(http.MethodPost, "/api/chat/sessions/quick-start", map[string]string{"topic_key": "skill-development"})
	require.Equal(t, http.StatusCreated, status)
	var session struct {
		Id string `json:"id"`
	}
	decode(t, env.Data, &session)

	body := map[string]interface{}{"chat_session_id": session.Id, "content": "What should I learn next?"}
	for i := 0; i < 2; i++ {
		status, _ = c.do(http.MethodPost, "/api/chat/messages", body)
		require.Equal(t, http.StatusOK, status)
	}
	status, _ = c.do(http.MethodPost, "/api/chat/messages", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestNewContainer_RequiresJwtSecret(t *testing.T) {
	db, err := database.NewInMemory()
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{EventBus: "memory"},
		Ai:  config.AIConfig{LLMProvider: "openai"},
	}

	container, err := bootstrap.NewContainer(db, cfg,
		bootstrap.WithLLMProvider(&scriptedLLM{}),
		bootstrap.WithLogger(logger.NewNopLogger()),
		bootstrap.WithActivityLogger(logger.NewNopLogger()),
	)
	assert.ErrorIs(t, err, config.ErrMissingJwtSecret)
	assert.Nil(t, container)
}
