package persistence

import (
	"context"
	"encoding/json"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/contractlane"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence/models"
)

type ContractLaneRepository struct{}

func NewContractLaneRepository() contractlane.Repository {
	return &ContractLaneRepository{}
}

func (r *ContractLaneRepository) FindActive(ctx context.Context, hcr, tripNumber string) (contractlane.ContractLane, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return contractlane.ContractLane{}, err
	}
	var m models.ContractLane
	err = tx.QueryRow(ctx, `
		SELECT id, organization_id, hcr, trip_number, name, customer_id,
		       contract_period_start, contract_period_end, rate_type, rate,
		       currency, miles, stops, is_active, is_deleted, created_by,
		       created_at, updated_at
		FROM freight_contract_lanes
		WHERE organization_id = $1 AND hcr = $2 AND trip_number = $3 AND NOT is_deleted
		LIMIT 1`,
		tenantID, hcr, tripNumber,
	).Scan(
		&m.ID, &m.OrganizationID, &m.HCR, &m.TripNumber, &m.Name, &m.CustomerID,
		&m.ContractPeriodStart, &m.ContractPeriodEnd, &m.RateType, &m.Rate,
		&m.Currency, &m.Miles, &m.Stops, &m.IsActive, &m.IsDeleted, &m.CreatedBy,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contractlane.ContractLane{}, contractlane.ErrNotFound
		}
		return contractlane.ContractLane{}, gerrors.Wrap(err, "find contract lane")
	}
	return toDomainContractLane(&m)
}

// Create inserts the lane. A concurrent insert for the same route surfaces
// as a unique violation on freight_contract_lanes_route_key.
func (r *ContractLaneRepository) Create(ctx context.Context, lane contractlane.ContractLane) (contractlane.ContractLane, error) {
	tenantID, tx, err := scope(ctx)
	if err != nil {
		return contractlane.ContractLane{}, err
	}
	stops, err := json.Marshal(lane.Stops())
	if err != nil {
		return contractlane.ContractLane{}, gerrors.Wrap(err, "marshal stops")
	}
	m := models.ContractLane{
		OrganizationID:      tenantID,
		HCR:                 lane.HCR(),
		TripNumber:          lane.TripNumber(),
		Name:                lane.Name(),
		CustomerID:          lane.CustomerID(),
		ContractPeriodStart: lane.ContractPeriodStart(),
		ContractPeriodEnd:   lane.ContractPeriodEnd(),
		RateType:            lane.RateType(),
		Currency:            lane.Currency(),
		Miles:               nullFloat(lane.Miles()),
		Stops:               stops,
		IsActive:            lane.IsActive(),
		CreatedBy:           lane.CreatedBy(),
	}
	if err := tx.QueryRow(ctx, `
		INSERT INTO freight_contract_lanes (
			organization_id, hcr, trip_number, name, customer_id,
			contract_period_start, contract_period_end, rate_type, rate,
			currency, miles, stops, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		m.OrganizationID, m.HCR, m.TripNumber, m.Name, m.CustomerID,
		m.ContractPeriodStart, m.ContractPeriodEnd, m.RateType, lane.Rate(),
		m.Currency, m.Miles, m.Stops, m.IsActive, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return contractlane.ContractLane{}, gerrors.Wrap(err, "create contract lane")
	}
	return contractlane.Hydrate(contractlane.HydrateParams{
		ID:                  m.ID,
		OrganizationID:      m.OrganizationID,
		HCR:                 m.HCR,
		TripNumber:          m.TripNumber,
		Name:                m.Name,
		CustomerID:          m.CustomerID,
		ContractPeriodStart: m.ContractPeriodStart,
		ContractPeriodEnd:   m.ContractPeriodEnd,
		RateType:            m.RateType,
		Rate:                lane.Rate(),
		Currency:            m.Currency,
		Miles:               lane.Miles(),
		Stops:               lane.Stops(),
		IsActive:            m.IsActive,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}), nil
}
