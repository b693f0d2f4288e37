package contract

import (
	"context"
	"errors"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/specification"
)

// ErrEmailTaken is returned by Create when the unique email index rejects
// the row, which happens when two registrations race past the lookup.
var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
