package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Load struct {
	ID                   uuid.UUID
	OrganizationID       uuid.UUID
	OrderNumber          string
	CustomerID           uuid.UUID
	LoadType             string
	ParsedHCR            pgtype.Text
	ParsedTripNumber     pgtype.Text
	RequiresManualReview bool
	IsHeld               bool
	HeldReason           pgtype.Text
	HeldReasonCode       pgtype.Text
	HeldAt               pgtype.Timestamptz
	HeldBy               pgtype.UUID
	HasSignedPOD         bool
	PODStorageID         pgtype.Text
	PODUploadedAt        pgtype.Timestamptz
	ContractMiles        pgtype.Float8
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Payable struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LoadID         uuid.UUID
	SettlementID   pgtype.UUID
	PayeeType      string
	Description    string
	Amount         pgtype.Numeric
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Settlement struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	StatementNumber string
	Status          string
}

type ContractLane struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	HCR                 string
	TripNumber          string
	Name                string
	CustomerID          uuid.UUID
	ContractPeriodStart time.Time
	ContractPeriodEnd   time.Time
	RateType            string
	Rate                pgtype.Numeric
	Currency            string
	Miles               pgtype.Float8
	Stops               []byte
	IsActive            bool
	IsDeleted           bool
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
