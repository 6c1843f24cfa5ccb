package settlement

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusPaid     Status = "PAID"
	StatusVoid     Status = "VOID"
)

var ErrNotFound = errors.New("settlement not found")

// Settlement is read-only here; batches are produced by the settlement generator.
type Settlement struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	StatementNumber string
	Status          Status
}

// AllowsDetach reports whether payables may still leave this batch.
func (s Settlement) AllowsDetach() bool {
	return s.Status == StatusDraft
}

type Repository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Settlement, error)
}
