package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/payable"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence/models"
)

type PayableRepository struct{}

func NewPayableRepository() payable.Repository {
	return &PayableRepository{}
}

func (r *PayableRepository) ListByLoad(ctx context.Context, loadID uuid.UUID) ([]payable.Payable, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, organization_id, load_id, settlement_id, payee_type,
		       description, amount, currency, created_at, updated_at
		FROM freight_payables
		WHERE organization_id = $1 AND load_id = $2
		ORDER BY created_at, id`,
		tenantID, loadID,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "list payables")
	}
	defer rows.Close()

	var out []payable.Payable
	for rows.Next() {
		var m models.Payable
		if err := rows.Scan(
			&m.ID, &m.OrganizationID, &m.LoadID, &m.SettlementID, &m.PayeeType,
			&m.Description, &m.Amount, &m.Currency, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, gerrors.Wrap(err, "scan payable")
		}
		p, err := toDomainPayable(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate payables")
	}
	return out, nil
}

func (r *PayableRepository) DetachFromSettlements(ctx context.Context, loadID uuid.UUID) ([]uuid.UUID, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		UPDATE freight_payables
		SET settlement_id = NULL, updated_at = now()
		WHERE organization_id = $1 AND load_id = $2 AND settlement_id IS NOT NULL
		RETURNING id`,
		tenantID, loadID,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "detach payables")
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, gerrors.Wrap(err, "scan detached payable id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate detached payables")
	}
	return ids, nil
}
