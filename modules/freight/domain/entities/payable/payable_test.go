package payable

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPayable_Money(t *testing.T) {
	p := Payable{ID: uuid.New(), Amount: decimal.RequireFromString("1250.505"), Currency: "usd"}
	m, err := p.Money()
	require.NoError(t, err)
	require.Equal(t, int64(125051), m.Amount())
	require.Equal(t, "USD", m.Currency().Code)

	_, err = Payable{ID: uuid.New(), Amount: decimal.NewFromInt(1), Currency: "XYZ"}.Money()
	require.ErrorContains(t, err, "unknown currency")
}

func TestTotals(t *testing.T) {
	settlementID := uuid.New()
	payables := []Payable{
		{Amount: decimal.RequireFromString("1000"), Currency: "USD", SettlementID: &settlementID},
		{Amount: decimal.RequireFromString("250.00"), Currency: "USD"},
		{Amount: decimal.RequireFromString("80"), Currency: "EUR"},
	}
	totals, err := Totals(payables)
	require.NoError(t, err)
	require.Equal(t, []string{"€80.00", "$1,250.00"}, totals)
	require.True(t, payables[0].IsAssigned())
	require.False(t, payables[1].IsAssigned())

	totals, err = Totals(nil)
	require.NoError(t, err)
	require.Empty(t, totals)
}
