package service

import (
	"errors"
	"time"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs HS256 access tokens carrying the user id.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var ErrEmptySigningKey = errors.New("token signing key is empty")

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySigningKey
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (t *TokenIssuer) Issue(user *entity.User) (string, time.Time, error) {
	expiresAt := t.now().Add(t.ttl)
	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"iat":     t.now().Unix(),
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func toUserProfile(user *entity.User) dto.UserProfileResponse {
	return dto.UserProfileResponse{
		Id:        user.Id,
		Name:      user.Name,
		Email:     user.Email,
		Image:     user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}

func (t *TokenIssuer) loginResponse(user *entity.User) (*dto.LoginResponse, error) {
	token, expiresAt, err := t.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        toUserProfile(user),
	}, nil
}
