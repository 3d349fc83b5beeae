package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvz16/traeme/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from domain.OrderStatus
		to   domain.OrderStatus
		want bool
	}{
		{"searching to selection", domain.OrderStatusSearching, domain.OrderStatusSelection, true},
		{"selection to purchased", domain.OrderStatusSelection, domain.OrderStatusPurchased, true},
		{"purchased to in transit", domain.OrderStatusPurchased, domain.OrderStatusInTransit, true},
		{"in transit to delivered", domain.OrderStatusInTransit, domain.OrderStatusDelivered, true},
		{"skip ahead", domain.OrderStatusSelection, domain.OrderStatusDelivered, false},
		{"backwards", domain.OrderStatusPurchased, domain.OrderStatusSelection, false},
		{"delivered is terminal", domain.OrderStatusDelivered, domain.OrderStatusCancelled, false},
		{"cancelled is terminal", domain.OrderStatusCancelled, domain.OrderStatusSearching, false},
		{"same status", domain.OrderStatusPurchased, domain.OrderStatusPurchased, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCancellableFromEveryNonTerminalStatus(t *testing.T) {
	for from := range transitions {
		assert.True(t, CanTransition(from, domain.OrderStatusCancelled), "expected %s to be cancellable", from)
	}
}

func TestTransitionSources(t *testing.T) {
	sources := transitionSources(domain.OrderStatusDelivered)
	assert.Equal(t, []string{string(domain.OrderStatusInTransit)}, sources)

	sources = transitionSources(domain.OrderStatusCancelled)
	assert.Len(t, sources, 5)
	assert.NotContains(t, sources, string(domain.OrderStatusDelivered))
	assert.NotContains(t, sources, string(domain.OrderStatusCancelled))
}

func TestKnownStatus(t *testing.T) {
	assert.True(t, KnownStatus(domain.OrderStatusSearching))
	assert.True(t, KnownStatus(domain.OrderStatusCancelled))
	assert.False(t, KnownStatus(domain.OrderStatus("PENDIENTE")))
	assert.False(t, KnownStatus(domain.OrderStatus("")))
}

func TestParseDigits(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"100000", 100000, true},
		{" 42 ", 42, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"12.50", 0, false},
		{"-5", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseDigits(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
