package customer

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("customer not found")

type Customer struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
}
