package serverutils

import (
	"fmt"
	"strings"

	"career-counselor-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDLocal = "user_id"

// NewJwtMiddleware verifies the bearer token and stores the caller id in
// ctx.Locals. The id never comes from the request body. Without a secret
// every request is refused, since an empty HMAC key verifies forged tokens.
func NewJwtMiddleware(secret string) fiber.Handler {
	if secret == "" {
		return func(ctx *fiber.Ctx) error {
			return apperror.New(apperror.ErrUnauthorized, "Authentication is not configured")
		}
	}
	key := []byte(secret)

	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return apperror.New(apperror.ErrUnauthorized, "Missing token")
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return apperror.New(apperror.ErrUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperror.New(apperror.ErrUnauthorized, "Invalid claims")
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			return apperror.New(apperror.ErrUnauthorized, "Invalid claims")
		}

		ctx.Locals(userIDLocal, userID)
		return ctx.Next()
	}
}

// CurrentUserID returns the caller id set by the JWT middleware.
func CurrentUserID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals(userIDLocal).(string)
	if !ok {
		return uuid.Nil, apperror.New(apperror.ErrUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.ErrUnauthorized, "Invalid user id in token")
	}
	return id, nil
}
