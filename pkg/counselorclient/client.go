// Package counselorclient is a small HTTP client for the career counselor API.
package counselorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"career-counselor-be/pkg/reconcile"

	"github.com/google/uuid"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) { c.token = token }

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
	// UserMessage is set when a send failed upstream after the user turn was stored.
	UserMessage *reconcile.Message
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type Session struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int64     `json:"message_count"`
}

type SessionPage struct {
	Sessions   []Session  `json:"sessions"`
	NextCursor *uuid.UUID `json:"next_cursor"`
}

type MessagePage struct {
	Messages   []reconcile.Message `json:"messages"`
	NextCursor *uuid.UUID          `json:"next_cursor"`
	HasMore    bool                `json:"has_more"`
}

type SendResult struct {
	UserMessage reconcile.Message `json:"user_message"`
	AiMessage   reconcile.Message `json:"ai_message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("unreadable response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if len(env.Data) > 0 {
			var failure struct {
				UserMessage *reconcile.Message `json:"user_message"`
			}
			if json.Unmarshal(env.Data, &failure) == nil {
				apiErr.UserMessage = failure.UserMessage
			}
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func pageQuery(limit int, cursor *uuid.UUID) string {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != nil {
		q.Set("cursor", cursor.String())
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	var res Session
	if err := c.do(ctx, http.MethodPost, "/api/chat/sessions", map[string]string{"title": title}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListSessions(ctx context.Context, limit int, cursor *uuid.UUID) (*SessionPage, error) {
	var res SessionPage
	if err := c.do(ctx, http.MethodGet, "/api/chat/sessions"+pageQuery(limit, cursor), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int, cursor *uuid.UUID) (*MessagePage, error) {
	var res MessagePage
	path := "/api/chat/sessions/" + sessionID.String() + "/messages" + pageQuery(limit, cursor)
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Send(ctx context.Context, req reconcile.SendRequest) (*SendResult, error) {
	var res SendResult
	if err := c.do(ctx, http.MethodPost, "/api/chat/messages", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Summary(ctx context.Context, sessionID uuid.UUID) (string, error) {
	var res struct {
		Summary string `json:"summary"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/sessions/"+sessionID.String()+"/summary", nil, &res); err != nil {
		return "", err
	}
	return res.Summary, nil
}
