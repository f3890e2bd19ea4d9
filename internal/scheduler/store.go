package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

// ServiceStore is the persisted service state the scheduler jobs read and
// prune. The Redis store satisfies it.
type ServiceStore interface {
	GetAllServices(ctx context.Context) ([]domain.ServiceRecord, error)
	DeleteService(ctx context.Context, id string) error
	PruneExpired(ctx context.Context) (int, error)
}
