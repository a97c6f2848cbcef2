package intake

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no intake record has the requested id.
var ErrNotFound = errors.New("intake record not found")

type Repository interface {
	Create(ctx context.Context, r *IntakeRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*IntakeRecord, error)
	List(ctx context.Context, limit, offset int) ([]*IntakeRecord, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
