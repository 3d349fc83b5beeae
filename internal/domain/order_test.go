package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLedger(t *testing.T) {
	price := int64(100000)

	ledger := ComputeLedger(&price, 40000, 20000, 15000)

	assert.Equal(t, int64(40000), ledger.TotalPayments)
	assert.Equal(t, int64(20000), ledger.TotalPendingPayments)
	assert.Equal(t, int64(15000), ledger.TotalExpenses)
	assert.Equal(t, int64(60000), ledger.Balance)
	assert.Equal(t, int64(25000), ledger.Margin)
}

func TestComputeLedgerWithoutPrice(t *testing.T) {
	ledger := ComputeLedger(nil, 40000, 0, 10000)

	assert.Equal(t, int64(0), ledger.Balance, "balance is zero until a price is agreed")
	assert.Equal(t, int64(30000), ledger.Margin)
}

func TestComputeLedgerNegativeMargin(t *testing.T) {
	price := int64(50000)

	ledger := ComputeLedger(&price, 10000, 0, 35000)

	assert.Equal(t, int64(40000), ledger.Balance)
	assert.Equal(t, int64(-25000), ledger.Margin)
}

func TestOrderTitle(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"empty", nil, ""},
		{"single", []string{"Tenis"}, "Tenis"},
		{"three", []string{"Tenis", "Gorra", "Reloj"}, "Tenis + Gorra + Reloj"},
		{"truncated", []string{"Tenis", "Gorra", "Reloj", "Bolso"}, "Tenis + Gorra + Reloj…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderTitle(tt.names))
		})
	}
}
