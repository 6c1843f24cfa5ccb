package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("membership not found")

// Membership binds a user to an organization with a role slug that maps onto
// a casbin role subject.
type Membership struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           string
}

type Repository interface {
	Get(ctx context.Context, organizationID, userID uuid.UUID) (Membership, error)
}
