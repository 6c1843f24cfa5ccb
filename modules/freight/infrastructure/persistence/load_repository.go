package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence/models"
	"github.com/iota-uz/iota-freight/pkg/repo"
)

const loadColumns = `
	id, organization_id, order_number, customer_id, load_type,
	parsed_hcr, parsed_trip_number, requires_manual_review,
	is_held, held_reason, held_reason_code, held_at, held_by,
	has_signed_pod, pod_storage_id, pod_uploaded_at, contract_miles,
	created_at, updated_at`

type LoadRepository struct{}

func NewLoadRepository() load.Repository {
	return &LoadRepository{}
}

func scanLoad(row pgx.Row) (load.Load, error) {
	var m models.Load
	if err := row.Scan(
		&m.ID, &m.OrganizationID, &m.OrderNumber, &m.CustomerID, &m.LoadType,
		&m.ParsedHCR, &m.ParsedTripNumber, &m.RequiresManualReview,
		&m.IsHeld, &m.HeldReason, &m.HeldReasonCode, &m.HeldAt, &m.HeldBy,
		&m.HasSignedPOD, &m.PODStorageID, &m.PODUploadedAt, &m.ContractMiles,
		&m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return load.Load{}, err
	}
	return toDomainLoad(&m), nil
}

func (r *LoadRepository) GetByID(ctx context.Context, id uuid.UUID) (load.Load, error) {
	return r.get(ctx, id, "")
}

func (r *LoadRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (load.Load, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *LoadRepository) get(ctx context.Context, id uuid.UUID, lock string) (load.Load, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return load.Load{}, err
	}
	l, err := scanLoad(tx.QueryRow(ctx, `
		SELECT `+loadColumns+`
		FROM freight_loads
		WHERE organization_id = $1 AND id = $2`+lock,
		tenantID, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return load.Load{}, load.ErrNotFound
		}
		return load.Load{}, gerrors.Wrap(err, "get load")
	}
	return l, nil
}

func (r *LoadRepository) Update(ctx context.Context, l load.Load) error {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return err
	}
	s := l.Snapshot()
	var reasonCode string
	if s.IsHeld {
		reasonCode = string(s.HeldReasonCode)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE freight_loads SET
			load_type = $3,
			requires_manual_review = $4,
			is_held = $5,
			held_reason = $6,
			held_reason_code = $7,
			held_at = $8,
			held_by = $9,
			has_signed_pod = $10,
			pod_storage_id = $11,
			pod_uploaded_at = $12,
			updated_at = $13
		WHERE organization_id = $1 AND id = $2`,
		tenantID,
		s.ID,
		string(s.LoadType),
		s.RequiresManualReview,
		s.IsHeld,
		nullText(s.HeldReason),
		nullText(reasonCode),
		nullTime(s.HeldAt),
		nullUUID(s.HeldBy),
		s.HasSignedPOD,
		nullText(s.PODStorageID),
		nullTime(s.PODUploadedAt),
		s.UpdatedAt,
	)
	if err != nil {
		return gerrors.Wrap(err, "update load")
	}
	if tag.RowsAffected() == 0 {
		return load.ErrNotFound
	}
	return nil
}

func (r *LoadRepository) ListHeld(ctx context.Context, params *load.FindParams) ([]load.Load, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT ` + loadColumns + `
		FROM freight_loads
		WHERE organization_id = $1 AND is_held
		ORDER BY held_at DESC NULLS LAST, order_number`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}
	rows, err := tx.Query(ctx, query, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list held loads")
	}
	defer rows.Close()

	var out []load.Load
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, gerrors.Wrap(err, "scan held load")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate held loads")
	}
	return out, nil
}

func (r *LoadRepository) CountHeld(ctx context.Context) (int64, error) {
	return r.count(ctx, "is_held", "count held loads")
}

func (r *LoadRepository) CountReviewNeeded(ctx context.Context) (int64, error) {
	return r.count(ctx, "requires_manual_review", "count review-needed loads")
}

func (r *LoadRepository) count(ctx context.Context, flag, op string) (int64, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM freight_loads WHERE organization_id = $1 AND `+flag,
		tenantID,
	).Scan(&n); err != nil {
		return 0, gerrors.Wrap(err, op)
	}
	return n, nil
}

func (r *LoadRepository) CountMatchingSpot(ctx context.Context, route load.Route) (int64, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return 0, err
	}
	where, args := spotMatch(1, tenantID, route)
	var n int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM freight_loads WHERE `+where, args...).Scan(&n); err != nil {
		return 0, gerrors.Wrap(err, "count matching spot loads")
	}
	return n, nil
}

func (r *LoadRepository) PromoteMatchingSpot(ctx context.Context, route load.Route) ([]uuid.UUID, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	where, args := spotMatch(2, tenantID, route)
	args = append([]any{string(load.TypeContract)}, args...)
	rows, err := tx.Query(ctx, `
		UPDATE freight_loads
		SET load_type = $1, requires_manual_review = false, updated_at = now()
		WHERE `+where+`
		RETURNING id`,
		args...,
	)
	if err != nil {
		return nil, gerrors.Wrap(err, "promote spot loads")
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, gerrors.Wrap(err, "scan promoted load id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate promoted loads")
	}
	return ids, nil
}
