package payable

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayeeType string

const (
	PayeeDriver  PayeeType = "DRIVER"
	PayeeCarrier PayeeType = "CARRIER"
)

type Payable struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LoadID         uuid.UUID
	SettlementID   *uuid.UUID
	PayeeType      PayeeType
	Description    string
	Amount         decimal.Decimal
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (p Payable) IsAssigned() bool {
	return p.SettlementID != nil
}

// Money converts the decimal amount into minor units of its currency.
func (p Payable) Money() (*money.Money, error) {
	code := strings.ToUpper(strings.TrimSpace(p.Currency))
	currency := money.GetCurrency(code)
	if currency == nil {
		return nil, fmt.Errorf("payable %s: unknown currency %q", p.ID, p.Currency)
	}
	minor := p.Amount.Shift(int32(currency.Fraction)).Round(0).IntPart()
	return money.New(minor, code), nil
}

// Totals sums payables per currency and renders each total for display,
// e.g. ["$1,250.00", "CA$80.00"]. Currencies are ordered by code.
func Totals(payables []Payable) ([]string, error) {
	sums := map[string]*money.Money{}
	for _, p := range payables {
		m, err := p.Money()
		if err != nil {
			return nil, err
		}
		code := m.Currency().Code
		if prev, ok := sums[code]; ok {
			if m, err = prev.Add(m); err != nil {
				return nil, err
			}
		}
		sums[code] = m
	}
	codes := make([]string, 0, len(sums))
	for code := range sums {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, sums[code].Display())
	}
	return out, nil
}

type Repository interface {
	ListByLoad(ctx context.Context, loadID uuid.UUID) ([]Payable, error)
	// DetachFromSettlements clears settlement_id on every assigned payable
	// of the load and returns the ids it changed.
	DetachFromSettlements(ctx context.Context, loadID uuid.UUID) ([]uuid.UUID, error)
}
