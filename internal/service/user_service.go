package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/dto"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/repository/specification"
	"career-counselor-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	GetCurrentUser(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewUserService(uowFactory unitofwork.RepositoryFactory) IUserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

func (s *userService) GetCurrentUser(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.New(apperror.ErrNotFound, "user not found")
	}

	profile := toUserProfile(user)
	return &profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > constant.MaxNameLength {
		return nil, apperror.New(apperror.ErrInvalidInput, "name must be between 1 and 50 characters")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.New(apperror.ErrNotFound, "user not found")
	}

	user.Name = name
	user.UpdatedAt = time.Now().UTC()
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}

	profile := toUserProfile(user)
	return &profile, nil
}
