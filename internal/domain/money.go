package domain

import "time"

type PaymentKind string

const (
	PaymentKindAdvance PaymentKind = "ADELANTO"
	PaymentKindPartial PaymentKind = "PARCIAL"
	PaymentKindFinal   PaymentKind = "FINAL"
)

type PaymentMethod string

const (
	PaymentMethodSinpe  PaymentMethod = "SINPE"
	PaymentMethodCash   PaymentMethod = "EFECTIVO"
	PaymentMethodCard   PaymentMethod = "TARJETA"
	PaymentMethodPaypal PaymentMethod = "PAYPAL"
	PaymentMethodOther  PaymentMethod = "OTRO"
)

type PaymentOrigin string

const (
	PaymentOriginShopper  PaymentOrigin = "SHOPPER"
	PaymentOriginCustomer PaymentOrigin = "CLIENTE"
)

// Payment records a money transfer against an order. Shopper-created
// payments are self-attested and start approved; customer-reported ones
// stay pending until the shopper confirms them.
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"order_id"`
	Amount    int64         `json:"amount"`
	Kind      PaymentKind   `json:"kind"`
	Method    PaymentMethod `json:"method"`
	Note      string        `json:"note,omitempty"`
	CreatedBy PaymentOrigin `json:"created_by"`
	Approved  bool          `json:"approved"`
	CreatedAt time.Time     `json:"created_at"`
}

type ExpenseCategory string

const (
	ExpenseCategoryProduct   ExpenseCategory = "PRODUCTO"
	ExpenseCategoryShipping  ExpenseCategory = "ENVIO"
	ExpenseCategoryTax       ExpenseCategory = "IMPUESTO"
	ExpenseCategoryFlight    ExpenseCategory = "VUELO"
	ExpenseCategoryLodging   ExpenseCategory = "HOSPEDAJE"
	ExpenseCategoryFood      ExpenseCategory = "COMIDA"
	ExpenseCategoryTransport ExpenseCategory = "TRANSPORTE"
	ExpenseCategoryOther     ExpenseCategory = "OTRO"
)

// Expense is a shopper cost, tied to an order or general overhead when
// OrderID is nil.
type Expense struct {
	ID          string          `json:"id"`
	OrderID     *string         `json:"order_id,omitempty"`
	ShopperID   string          `json:"shopper_id"`
	Category    ExpenseCategory `json:"category"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description,omitempty"`
	Currency    Currency        `json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
}
