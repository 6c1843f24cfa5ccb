package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/loadaudit"
)

type AuditRepository struct{}

func NewAuditRepository() loadaudit.Repository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(ctx context.Context, e loadaudit.Entry) (loadaudit.Entry, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return loadaudit.Entry{}, err
	}
	e.OrganizationID = tenantID
	if err := tx.QueryRow(ctx, `
		INSERT INTO freight_load_audit (organization_id, load_id, actor_id, operation, request_id, patch)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		tenantID, e.LoadID, e.ActorID, string(e.Operation), nullText(e.RequestID), e.Patch,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return loadaudit.Entry{}, gerrors.Wrap(err, "create load audit entry")
	}
	return e, nil
}
