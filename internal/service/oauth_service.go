package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"career-counselor-be/internal/config"
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/repository/contract"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle      = "google"
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateByteCount = 16
)

type IOAuthService interface {
	// GetLoginURL returns the provider consent URL and the state the
	// callback must echo back.
	GetLoginURL(provider string) (string, string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	tokens      *TokenIssuer
	publisher   events.Publisher
	logger      logger.ILogger
	googleConf  *oauth2.Config
	userInfoURL string
}

func NewOAuthService(cfg config.AuthConfig, uowFactory unitofwork.RepositoryFactory, tokens *TokenIssuer, publisher events.Publisher, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory:  uowFactory,
		tokens:      tokens,
		publisher:   publisher,
		logger:      log,
		googleConf:  conf,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *oauthService) checkProvider(provider string) error {
	if provider != ProviderGoogle {
		return apperror.New(apperror.ErrInvalidInput, fmt.Sprintf("unsupported provider %q", provider))
	}
	if s.googleConf.ClientID == "" {
		return apperror.New(apperror.ErrInvalidInput, "google sign-in is not configured")
	}
	return nil
}

func (s *oauthService) GetLoginURL(provider string) (string, string, error) {
	if err := s.checkProvider(provider); err != nil {
		return "", "", err
	}

	b := make([]byte, oauthStateByteCount)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), state, nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*googleUser, error) {
	client := s.googleConf.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var u googleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &u, nil
}

// findOrCreateUser links the Google profile to an account inside one
// transaction, creating the account on first sign-in.
func (s *oauthService) findOrCreateUser(ctx context.Context, profile *googleUser) (*entity.User, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: profile.Email})
	if err != nil {
		return nil, false, err
	}

	created := false
	now := time.Now().UTC()
	if user == nil {
		name := strings.TrimSpace(profile.Name)
		if name == "" {
			name = strings.Split(profile.Email, "@")[0]
		}
		user = &entity.User{
			Id:        uuid.New(),
			Name:      name,
			Email:     strings.ToLower(profile.Email),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if profile.Picture != "" {
			picture := profile.Picture
			user.AvatarURL = &picture
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, false, err
		}
		created = true
	} else if user.AvatarURL == nil && profile.Picture != "" {
		// Sync the avatar for accounts that never had one.
		picture := profile.Picture
		user.AvatarURL = &picture
		user.UpdatedAt = now
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, false, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if err := s.checkProvider(provider); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, apperror.New(apperror.ErrInvalidInput, "missing authorization code")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAUTH", "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Wrap(apperror.ErrUnauthorized, "code exchange failed", err)
	}

	profile, err := s.fetchGoogleUser(ctx, token)
	if err != nil {
		s.logger.Warn("OAUTH", "Fetching Google profile failed", map[string]interface{}{"error": err.Error()})
		return nil, apperror.Wrap(apperror.ErrUnauthorized, "could not read the Google profile", err)
	}
	if profile.Email == "" || !profile.VerifiedEmail {
		return nil, apperror.New(apperror.ErrUnauthorized, "google account email is not verified")
	}

	user, created, err := s.findOrCreateUser(ctx, profile)
	if errors.Is(err, contract.ErrEmailTaken) {
		// A concurrent callback inserted the account first; it is visible now.
		user, created, err = s.findOrCreateUser(ctx, profile)
	}
	if err != nil {
		if errors.Is(err, contract.ErrEmailTaken) {
			return nil, apperror.Wrap(apperror.ErrConflict, "email already registered", err)
		}
		return nil, err
	}

	eventType := events.TypeUserLogin
	if created {
		eventType = events.TypeUserRegistered
	}
	publishEvent(ctx, s.publisher, s.logger, events.New(eventType, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"method":  provider,
	}))

	return s.tokens.loginResponse(user)
}
