package load

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Limit  int
	Offset int
}

// Repository reads and writes loads of the tenant bound to ctx.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Load, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (Load, error)
	Update(ctx context.Context, l Load) error
	ListHeld(ctx context.Context, params *FindParams) ([]Load, error)
	CountHeld(ctx context.Context) (int64, error)
	CountReviewNeeded(ctx context.Context) (int64, error)
	CountMatchingSpot(ctx context.Context, route Route) (int64, error)
	// PromoteMatchingSpot converts every matching spot load to contract and
	// returns the ids it touched.
	PromoteMatchingSpot(ctx context.Context, route Route) ([]uuid.UUID, error)
}
