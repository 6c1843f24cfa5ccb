package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/settlement"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence/models"
)

type SettlementRepository struct{}

func NewSettlementRepository() settlement.Repository {
	return &SettlementRepository{}
}

// GetByIDs returns the settlements that exist; missing ids are simply absent
// from the map.
func (r *SettlementRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]settlement.Settlement, error) {
	out := make(map[uuid.UUID]settlement.Settlement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `
		SELECT id, organization_id, statement_number, status
		FROM freight_settlements
		WHERE organization_id = $1 AND id = ANY($2)`,
		tenantID, ids,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "get settlements")
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Settlement
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.StatementNumber, &m.Status); err != nil {
			return nil, gerrors.Wrap(err, "scan settlement")
		}
		out[m.ID] = settlement.Settlement{
			ID:              m.ID,
			OrganizationID:  m.OrganizationID,
			StatementNumber: m.StatementNumber,
			Status:          settlement.Status(m.Status),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate settlements")
	}
	return out, nil
}
