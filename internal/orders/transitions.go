package orders

import "github.com/jvz16/traeme/internal/domain"

// transitions is the order lifecycle table: for each current status, the
// statuses a shopper may move the order to. Terminal statuses have no
// entry. Cancellation is reachable from every non-terminal status.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusNew:       {domain.OrderStatusSearching, domain.OrderStatusSelection, domain.OrderStatusCancelled},
	domain.OrderStatusSearching: {domain.OrderStatusSelection, domain.OrderStatusCancelled},
	domain.OrderStatusSelection: {domain.OrderStatusPurchased, domain.OrderStatusCancelled},
	domain.OrderStatusPurchased: {domain.OrderStatusInTransit, domain.OrderStatusCancelled},
	domain.OrderStatusInTransit: {domain.OrderStatusDelivered, domain.OrderStatusCancelled},
}

// CanTransition reports whether an order currently in `from` may move to `to`.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transitionSources returns every status from which `to` is reachable.
// The claim-style conditional update needs the inverse of the table so the
// current-status check happens inside the UPDATE itself.
func transitionSources(to domain.OrderStatus) []string {
	var sources []string
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				sources = append(sources, string(from))
			}
		}
	}
	return sources
}

// KnownStatus reports whether s is one of the defined order statuses.
func KnownStatus(s domain.OrderStatus) bool {
	switch s {
	case domain.OrderStatusNew, domain.OrderStatusSearching, domain.OrderStatusSelection,
		domain.OrderStatusPurchased, domain.OrderStatusInTransit,
		domain.OrderStatusDelivered, domain.OrderStatusCancelled:
		return true
	}
	return false
}
