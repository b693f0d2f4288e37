package serverutils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/pkg/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(logger.NewNopLogger())})
}

func decode(t *testing.T, body io.Reader) Response {
	t.Helper()
	var res Response
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestErrorHandler_MapsKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid input", apperror.New(apperror.ErrInvalidInput, "bad"), 400, "bad"},
		{"unauthorized", apperror.New(apperror.ErrUnauthorized, "who"), 401, "who"},
		{"not found", apperror.New(apperror.ErrNotFound, "gone"), 404, "gone"},
		{"conflict", apperror.New(apperror.ErrConflict, "dup"), 409, "dup"},
		{"upstream", apperror.Wrap(apperror.ErrUpstreamFailure, "llm down", errors.New("timeout")), 502, "llm down"},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "nope"), 405, "nope"},
		{"unclassified", errors.New("db exploded"), 500, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			body := decode(t, resp.Body)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.msg, body.Message)
		})
	}
}

func TestErrorHandler_CarriesData(t *testing.T) {
	app := newTestApp()
	app.Get("/", func(ctx *fiber.Ctx) error {
		return apperror.New(apperror.ErrUpstreamFailure, "retry").WithData(map[string]string{"id": "m1"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	body := decode(t, resp.Body)
	assert.Equal(t, map[string]interface{}{"id": "m1"}, body.Data)
}

func TestJwtMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := signToken(t, jwt.MapClaims{"user_id": userID.String(), "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", 401},
		{"not bearer", "Basic abc", 401},
		{"wrong secret", "Bearer " + signToken(t, jwt.MapClaims{"user_id": userID.String()}, "other"), 401},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{"user_id": userID.String(), "exp": time.Now().Add(-time.Hour).Unix()}, testSecret), 401},
		{"no user id", "Bearer " + signToken(t, jwt.MapClaims{"email": "a@b.c"}, testSecret), 401},
		{"valid", "Bearer " + valid, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", NewJwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
				id, err := CurrentUserID(ctx)
				if err != nil {
					return err
				}
				return ctx.JSON(SuccessResponse("ok", id.String()))
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			if tt.code == 200 {
				assert.Equal(t, userID.String(), decode(t, resp.Body).Data)
			}
		})
	}
}

func TestJwtMiddleware_EmptySecretRefusesForgedTokens(t *testing.T) {
	forged := signToken(t, jwt.MapClaims{"user_id": uuid.New().String(), "exp": time.Now().Add(time.Hour).Unix()}, "")

	app := newTestApp()
	app.Get("/", NewJwtMiddleware(""), func(ctx *fiber.Ctx) error {
		return ctx.SendString("reached")
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

type sampleRequest struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"required,email"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&sampleRequest{Name: "Ada", Email: "ada@example.com"}))

	err := ValidateRequest(&sampleRequest{Name: "Adalbert", Email: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	fields, ok := apperror.DataOf(err).(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "name must be at most 5 characters", fields["name"])
	assert.Equal(t, "invalid email format", fields["email"])
}

type fixedCounter struct {
	count int64
	err   error
}

func (f *fixedCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	f.count++
	return f.count, 30 * time.Second, f.err
}

func TestRateLimitMiddleware(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, jwt.MapClaims{"user_id": userID.String()}, testSecret)

	limiter := ratelimit.NewLimiter(&fixedCounter{}, 2, time.Minute)
	app := newTestApp()
	app.Post("/send", NewJwtMiddleware(testSecret), NewRateLimitMiddleware(limiter, "send", logger.NewNopLogger()),
		func(ctx *fiber.Ctx) error { return ctx.JSON(SuccessResponse("sent", nil)) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/send", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
		if resp.StatusCode == fiber.StatusTooManyRequests {
			assert.Equal(t, "30", resp.Header.Get("Retry-After"))
			assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"user_id": uuid.New().String()}, testSecret)

	limiter := ratelimit.NewLimiter(&fixedCounter{count: 100, err: errors.New("redis down")}, 1, time.Minute)
	app := newTestApp()
	app.Post("/send", NewJwtMiddleware(testSecret), NewRateLimitMiddleware(limiter, "send", logger.NewNopLogger()),
		func(ctx *fiber.Ctx) error { return ctx.JSON(SuccessResponse("sent", nil)) })

	req := httptest.NewRequest("POST", "/send", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
