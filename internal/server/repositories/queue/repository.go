package queue

import (
	"context"

	"github.com/A1iAshoor/s3-relay/internal/server/models"
)

// Repository is the persisted queue-entry store. Implementations must
// enforce uuid uniqueness and the one-way pending -> imported transition at
// the storage boundary.
type Repository interface {
	Create(ctx context.Context, entry *models.QueueEntry) error
	GetByID(ctx context.Context, id string) (*models.QueueEntry, error)
	SelectPending(ctx context.Context, owner *models.OwnerRef) ([]*models.QueueEntry, error)
	MarkImported(ctx context.Context, id string) (*models.QueueEntry, error)
	Delete(ctx context.Context, id string) error
}
