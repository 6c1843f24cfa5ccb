package contractlane

import (
	"context"
)

type Repository interface {
	// FindActive returns the non-deleted lane of the tenant for hcr/trip,
	// or ErrNotFound.
	FindActive(ctx context.Context, hcr, tripNumber string) (ContractLane, error)
	Create(ctx context.Context, lane ContractLane) (ContractLane, error)
}
