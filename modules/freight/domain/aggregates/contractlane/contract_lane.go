package contractlane

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultRateType = "Flat Rate"
	DefaultCurrency = "USD"
)

var ErrNotFound = errors.New("contract lane not found")

type Stop struct {
	Sequence int    `json:"sequence"`
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
}

type ContractLane struct {
	id                  uuid.UUID
	organizationID      uuid.UUID
	hcr                 string
	tripNumber          string
	name                string
	customerID          uuid.UUID
	contractPeriodStart time.Time
	contractPeriodEnd   time.Time
	rateType            string
	rate                decimal.Decimal
	currency            string
	miles               *float64
	stops               []Stop
	isActive            bool
	isDeleted           bool
	createdBy           uuid.UUID
	createdAt           time.Time
	updatedAt           time.Time
}

// Terms are the commercial attributes of a new lane. Zero values fall back
// to the defaults applied by New.
type Terms struct {
	Name        string
	CustomerID  uuid.UUID
	PeriodStart time.Time
	PeriodEnd   time.Time
	RateType    string
	Rate        *decimal.Decimal
	Currency    string
	Miles       *float64
	Stops       []Stop
}

// DefaultName is the lane name used when the caller does not choose one.
func DefaultName(customerName, tripNumber string) string {
	return fmt.Sprintf("Lane: %s - %s", customerName, tripNumber)
}

func New(organizationID uuid.UUID, hcr, tripNumber string, terms Terms, createdBy uuid.UUID) ContractLane {
	rateType := strings.TrimSpace(terms.RateType)
	if rateType == "" {
		rateType = DefaultRateType
	}
	rate := decimal.Zero
	if terms.Rate != nil {
		rate = *terms.Rate
	}
	currency := strings.ToUpper(strings.TrimSpace(terms.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	stops := terms.Stops
	if stops == nil {
		stops = []Stop{}
	}
	return ContractLane{
		organizationID:      organizationID,
		hcr:                 hcr,
		tripNumber:          tripNumber,
		name:                strings.TrimSpace(terms.Name),
		customerID:          terms.CustomerID,
		contractPeriodStart: terms.PeriodStart,
		contractPeriodEnd:   terms.PeriodEnd,
		rateType:            rateType,
		rate:                rate,
		currency:            currency,
		miles:               terms.Miles,
		stops:               stops,
		isActive:            true,
		createdBy:           createdBy,
	}
}

type HydrateParams struct {
	ID                  uuid.UUID
	OrganizationID      uuid.UUID
	HCR                 string
	TripNumber          string
	Name                string
	CustomerID          uuid.UUID
	ContractPeriodStart time.Time
	ContractPeriodEnd   time.Time
	RateType            string
	Rate                decimal.Decimal
	Currency            string
	Miles               *float64
	Stops               []Stop
	IsActive            bool
	IsDeleted           bool
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func Hydrate(p HydrateParams) ContractLane {
	return ContractLane{
		id:                  p.ID,
		organizationID:      p.OrganizationID,
		hcr:                 p.HCR,
		tripNumber:          p.TripNumber,
		name:                p.Name,
		customerID:          p.CustomerID,
		contractPeriodStart: p.ContractPeriodStart,
		contractPeriodEnd:   p.ContractPeriodEnd,
		rateType:            p.RateType,
		rate:                p.Rate,
		currency:            p.Currency,
		miles:               p.Miles,
		stops:               p.Stops,
		isActive:            p.IsActive,
		isDeleted:           p.IsDeleted,
		createdBy:           p.CreatedBy,
		createdAt:           p.CreatedAt,
		updatedAt:           p.UpdatedAt,
	}
}

func (c ContractLane) ID() uuid.UUID                  { return c.id }
func (c ContractLane) OrganizationID() uuid.UUID      { return c.organizationID }
func (c ContractLane) HCR() string                    { return c.hcr }
func (c ContractLane) TripNumber() string             { return c.tripNumber }
func (c ContractLane) Name() string                   { return c.name }
func (c ContractLane) CustomerID() uuid.UUID          { return c.customerID }
func (c ContractLane) ContractPeriodStart() time.Time { return c.contractPeriodStart }
func (c ContractLane) ContractPeriodEnd() time.Time   { return c.contractPeriodEnd }
func (c ContractLane) RateType() string               { return c.rateType }
func (c ContractLane) Rate() decimal.Decimal          { return c.rate }
func (c ContractLane) Currency() string               { return c.currency }
func (c ContractLane) Miles() *float64                { return c.miles }
func (c ContractLane) Stops() []Stop                  { return c.stops }
func (c ContractLane) IsActive() bool                 { return c.isActive }
func (c ContractLane) IsDeleted() bool                { return c.isDeleted }
func (c ContractLane) CreatedBy() uuid.UUID           { return c.createdBy }
func (c ContractLane) CreatedAt() time.Time           { return c.createdAt }
func (c ContractLane) UpdatedAt() time.Time           { return c.updatedAt }
