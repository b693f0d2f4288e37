package contract

import (
	"context"

	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MessageRepository is append-only: there is no update or delete path.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	CountBySessionIDs(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}
