package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/contractlane"
	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
	"github.com/iota-uz/iota-freight/modules/freight/domain/entities/payable"
	"github.com/iota-uz/iota-freight/modules/freight/infrastructure/persistence/models"
)

func toDomainLoad(m *models.Load) load.Load {
	s := load.Snapshot{
		ID:                   m.ID,
		OrganizationID:       m.OrganizationID,
		OrderNumber:          m.OrderNumber,
		CustomerID:           m.CustomerID,
		LoadType:             load.Type(m.LoadType),
		ParsedHCR:            m.ParsedHCR.String,
		ParsedTripNumber:     m.ParsedTripNumber.String,
		RequiresManualReview: m.RequiresManualReview,
		IsHeld:               m.IsHeld,
		HeldReason:           m.HeldReason.String,
		HeldReasonCode:       load.HoldReasonCode(m.HeldReasonCode.String),
		HeldAt:               timePtr(m.HeldAt),
		HasSignedPOD:         m.HasSignedPOD,
		PODStorageID:         m.PODStorageID.String,
		PODUploadedAt:        timePtr(m.PODUploadedAt),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
	if m.HeldBy.Valid {
		by := uuid.UUID(m.HeldBy.Bytes)
		s.HeldBy = &by
	}
	if m.ContractMiles.Valid {
		miles := m.ContractMiles.Float64
		s.ContractMiles = &miles
	}
	return load.Hydrate(s)
}

func toDomainPayable(m *models.Payable) (payable.Payable, error) {
	amount, err := numericToDecimal(m.Amount)
	if err != nil {
		return payable.Payable{}, fmt.Errorf("payable %s amount: %w", m.ID, err)
	}
	p := payable.Payable{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		LoadID:         m.LoadID,
		PayeeType:      payable.PayeeType(m.PayeeType),
		Description:    m.Description,
		Amount:         amount,
		Currency:       strings.TrimSpace(m.Currency),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.SettlementID.Valid {
		id := uuid.UUID(m.SettlementID.Bytes)
		p.SettlementID = &id
	}
	return p, nil
}

func toDomainContractLane(m *models.ContractLane) (contractlane.ContractLane, error) {
	rate, err := numericToDecimal(m.Rate)
	if err != nil {
		return contractlane.ContractLane{}, fmt.Errorf("contract lane %s rate: %w", m.ID, err)
	}
	stops := []contractlane.Stop{}
	if len(m.Stops) > 0 {
		if err := json.Unmarshal(m.Stops, &stops); err != nil {
			return contractlane.ContractLane{}, fmt.Errorf("contract lane %s stops: %w", m.ID, err)
		}
	}
	var miles *float64
	if m.Miles.Valid {
		v := m.Miles.Float64
		miles = &v
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
		Rate:                rate,
		Currency:            strings.TrimSpace(m.Currency),
		Miles:               miles,
		Stops:               stops,
		IsActive:            m.IsActive,
		IsDeleted:           m.IsDeleted,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}), nil
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, fmt.Errorf("non-finite numeric")
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func nullText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func nullUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

func nullFloat(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
