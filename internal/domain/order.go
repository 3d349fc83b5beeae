package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NUEVO"
	OrderStatusSearching OrderStatus = "BUSCANDO_SHOPPER"
	OrderStatusSelection OrderStatus = "EN_SELECCION"
	OrderStatusPurchased OrderStatus = "COMPRADO"
	OrderStatusInTransit OrderStatus = "EN_TRANSITO"
	OrderStatusDelivered OrderStatus = "ENTREGADO"
	OrderStatusCancelled OrderStatus = "CANCELADO"
)

type BudgetMode string

const (
	BudgetModePerItem BudgetMode = "POR_ARTICULO"
	BudgetModeTotal   BudgetMode = "TOTAL"
)

type ItemCategory string

const (
	CategoryClothing    ItemCategory = "ROPA"
	CategoryShoes       ItemCategory = "CALZADO"
	CategoryTech        ItemCategory = "TECH"
	CategoryAccessories ItemCategory = "ACCESORIOS"
	CategoryCosmetics   ItemCategory = "COSMETICOS"
	CategoryHome        ItemCategory = "HOGAR"
	CategorySports      ItemCategory = "DEPORTES"
	CategoryKids        ItemCategory = "NINOS"
	CategoryToys        ItemCategory = "JUGUETES"
	CategoryLuxury      ItemCategory = "LUJO"
	CategoryOther       ItemCategory = "OTRO"
)

type OrderItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  ItemCategory `json:"category"`
	Quantity  int          `json:"quantity"`
	Note      string       `json:"note,omitempty"`
	UnitPrice *int64       `json:"unit_price,omitempty"`
}

type Order struct {
	ID               string      `json:"id"`
	CustomerID       string      `json:"customer_id"`
	ShopperID        *string     `json:"shopper_id,omitempty"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Status           OrderStatus `json:"status"`
	Currency         Currency    `json:"currency"`
	BudgetMode       BudgetMode  `json:"budget_mode"`
	MaxBudgetPerItem *int64      `json:"max_budget_per_item,omitempty"`
	MaxBudgetTotal   *int64      `json:"max_budget_total,omitempty"`
	Price            *int64      `json:"price,omitempty"`
	Deadline         *time.Time  `json:"deadline,omitempty"`
	PhotoURL         string      `json:"photo_url,omitempty"`
	Items            []OrderItem `json:"items"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Ledger is the derived financial summary of an order. It is recomputed
// from payment and expense rows on every read and never persisted.
type Ledger struct {
	TotalPayments        int64 `json:"total_payments"`
	TotalPendingPayments int64 `json:"total_pending_payments"`
	TotalExpenses        int64 `json:"total_expenses"`
	Balance              int64 `json:"balance"`
	Margin               int64 `json:"margin"`
}

// ComputeLedger derives the ledger from the aggregated sums. Balance is
// price minus approved payments, or 0 when no price has been agreed yet.
func ComputeLedger(price *int64, approved, pending, expenses int64) Ledger {
	var balance int64
	if price != nil {
		balance = *price - approved
	}
	return Ledger{
		TotalPayments:        approved,
		TotalPendingPayments: pending,
		TotalExpenses:        expenses,
		Balance:              balance,
		Margin:               approved - expenses,
	}
}

// OrderTitle builds the auto-generated order title from its item names:
// the first three joined by " + ", with an ellipsis when more follow.
func OrderTitle(names []string) string {
	if len(names) == 0 {
		return ""
	}
	title := strings.Join(names[:min(3, len(names))], " + ")
	if len(names) > 3 {
		title += "…"
	}
	return title
}
