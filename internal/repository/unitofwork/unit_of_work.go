package unitofwork

import (
	"context"

	"career-counselor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	ChatSessionRepository() contract.ChatSessionRepository
	MessageRepository() contract.MessageRepository
}
