package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/internal/pkg/mailer"
	"career-counselor-be/internal/repository/contract"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"
	"career-counselor-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	tokens       *TokenIssuer
	emailService mailer.IEmailService
	publisher    events.Publisher
	logger       logger.ILogger
	hashCost     int
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, tokens *TokenIssuer, emailService mailer.IEmailService, publisher events.Publisher, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory:   uowFactory,
		tokens:       tokens,
		emailService: emailService,
		publisher:    publisher,
		logger:       log,
		hashCost:     bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.New(apperror.ErrInvalidInput, "name must not be empty")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// 2. Check for existing user
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrConflict, "email already registered")
	}

	// 3. Save
	now := time.Now().UTC()
	user := &entity.User{
		Id:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: &hashStr,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, contract.ErrEmailTaken) {
			return nil, apperror.Wrap(apperror.ErrConflict, "email already registered", err)
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	go func() {
		if err := s.emailService.SendWelcome(user.Email, user.Name); err != nil {
			s.logger.Warn("AUTH", "Welcome email not delivered", map[string]interface{}{
				"user_id": user.Id.String(),
				"error":   err.Error(),
			})
		}
	}()

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeUserRegistered, map[string]interface{}{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"method":  "password",
	}))

	return s.tokens.loginResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		return nil, apperror.New(apperror.ErrUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.New(apperror.ErrUnauthorized, "invalid email or password")
	}

	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeUserLogin, map[string]interface{}{
		"user_id": user.Id.String(),
		"method":  "password",
	}))

	return s.tokens.loginResponse(user)
}
