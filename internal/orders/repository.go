package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jvz16/traeme/internal/domain"
)

var (
	ErrOrderTaken        = errors.New("order already taken")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, customer_id, shopper_id, title, description, status, currency,
	budget_mode, max_budget_per_item, max_budget_total, price, deadline,
	photo_url, created_at
`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		shopperID        sql.NullString
		maxBudgetPerItem sql.NullInt64
		maxBudgetTotal   sql.NullInt64
		price            sql.NullInt64
		deadline         sql.NullTime
	)
	err := row.Scan(
		&order.ID, &order.CustomerID, &shopperID, &order.Title, &order.Description,
		&order.Status, &order.Currency, &order.BudgetMode, &maxBudgetPerItem,
		&maxBudgetTotal, &price, &deadline, &order.PhotoURL, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if shopperID.Valid {
		order.ShopperID = &shopperID.String
	}
	if maxBudgetPerItem.Valid {
		order.MaxBudgetPerItem = &maxBudgetPerItem.Int64
	}
	if maxBudgetTotal.Valid {
		order.MaxBudgetTotal = &maxBudgetTotal.Int64
	}
	if price.Valid {
		order.Price = &price.Int64
	}
	if deadline.Valid {
		order.Deadline = &deadline.Time
	}
	return order, nil
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, shopper_id, title, description, status, currency,
			budget_mode, max_budget_per_item, max_budget_total, deadline,
			photo_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`, order.ID, order.CustomerID, order.ShopperID, order.Title, order.Description,
		order.Status, order.Currency, order.BudgetMode, order.MaxBudgetPerItem,
		order.MaxBudgetTotal, order.Deadline, order.PhotoURL, order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		item := order.Items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, name, category, quantity, note, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`, item.ID, order.ID, item.Name, item.Category, item.Quantity, item.Note, order.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getWhere(ctx, "id = $1", id)
}

// GetForCustomer and GetForShopper scope the lookup to the owning party:
// an order held by someone else reads as not found.
func (r *OrderRepository) GetForCustomer(ctx context.Context, id, customerID string) (*domain.Order, error) {
	return r.getWhere(ctx, "id = $1 AND customer_id = $2", id, customerID)
}

func (r *OrderRepository) GetForShopper(ctx context.Context, id, shopperID string) (*domain.Order, error) {
	return r.getWhere(ctx, "id = $1 AND shopper_id = $2", id, shopperID)
}

func (r *OrderRepository) getWhere(ctx context.Context, where string, args ...any) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+where, args...)

	order, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, note, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		var unitPrice sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Note, &unitPrice); err != nil {
			return nil, err
		}
		if unitPrice.Valid {
			item.UnitPrice = &unitPrice.Int64
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOpen returns the unassigned pool. The predicate is re-checked inside
// Claim; this listing is advisory only.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]domain.Order, error) {
	return r.listWhere(ctx, "shopper_id IS NULL AND status = '"+string(domain.OrderStatusSearching)+"'")
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.listWhere(ctx, "customer_id = $1", customerID)
}

func (r *OrderRepository) ListByShopper(ctx context.Context, shopperID string) ([]domain.Order, error) {
	return r.listWhere(ctx, "shopper_id = $1", shopperID)
}

func (r *OrderRepository) listWhere(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, name, category, quantity, note, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		var unitPrice sql.NullInt64
		if err := itemRows.Scan(&orderID, &item.ID, &item.Name, &item.Category, &item.Quantity, &item.Note, &unitPrice); err != nil {
			return nil, err
		}
		if unitPrice.Valid {
			item.UnitPrice = &unitPrice.Int64
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// Claim assigns the shopper to an open order. The unassigned predicate is
// part of the UPDATE so two concurrent claimants cannot both succeed: the
// database serializes the writes and only one matches the WHERE clause.
func (r *OrderRepository) Claim(ctx context.Context, orderID, shopperID string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET shopper_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND shopper_id IS NULL AND status = $4
	`, orderID, shopperID, domain.OrderStatusSelection, domain.OrderStatusSearching)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		existing, err := r.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrOrderTaken
	}

	return r.GetByID(ctx, orderID)
}

// Transition moves an assigned order to the next status. The current
// status must permit the move; the check rides inside the UPDATE so a
// stale read cannot slip an order past the lifecycle table.
func (r *OrderRepository) Transition(ctx context.Context, orderID, shopperID string, next domain.OrderStatus) (*domain.Order, error) {
	sources := transitionSources(next)
	if len(sources) == 0 {
		return nil, ErrInvalidTransition
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND shopper_id = $2 AND status = ANY($4)
	`, orderID, shopperID, next, pq.Array(sources))
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		existing, err := r.GetForShopper(ctx, orderID, shopperID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, nil
		}
		return nil, ErrInvalidTransition
	}

	return r.GetByID(ctx, orderID)
}

func (r *OrderRepository) SetPrice(ctx context.Context, orderID, shopperID string, price int64) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET price = $3, updated_at = NOW()
		WHERE id = $1 AND shopper_id = $2
	`, orderID, shopperID, price)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, orderID)
}

// SetItemPrice backfills (or clears, with nil) the unit price of one line
// item, scoped to the assigned shopper's order.
func (r *OrderRepository) SetItemPrice(ctx context.Context, orderID, shopperID, itemID string, unitPrice *int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE order_items oi
		SET unit_price = $4, updated_at = NOW()
		FROM orders o
		WHERE oi.id = $3 AND oi.order_id = o.id AND o.id = $1 AND o.shopper_id = $2
	`, orderID, shopperID, itemID, unitPrice)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Ledger recomputes the order's financial summary from payment and
// expense rows. Nothing here is cached.
func (r *OrderRepository) Ledger(ctx context.Context, orderID string) (*domain.Ledger, error) {
	var (
		price    sql.NullInt64
		approved int64
		pending  int64
		expenses int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT o.price,
			COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.order_id = o.id AND p.approved), 0),
			COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.order_id = o.id AND NOT p.approved), 0),
			COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.order_id = o.id), 0)
		FROM orders o
		WHERE o.id = $1
	`, orderID).Scan(&price, &approved, &pending, &expenses)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var pricePtr *int64
	if price.Valid {
		pricePtr = &price.Int64
	}

	ledger := domain.ComputeLedger(pricePtr, approved, pending, expenses)
	return &ledger, nil
}

// ShopperTotals aggregates a shopper's income and spend across all their
// orders for the dashboard header.
type ShopperTotals struct {
	TotalIncome     int64 `json:"total_income"`
	GeneralExpenses int64 `json:"general_expenses"`
	OrderExpenses   int64 `json:"order_expenses"`
	NetMargin       int64 `json:"net_margin"`
}

func (r *OrderRepository) ShopperTotals(ctx context.Context, shopperID string) (*ShopperTotals, error) {
	totals := &ShopperTotals{}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE((
				SELECT SUM(p.amount) FROM payments p
				JOIN orders o ON o.id = p.order_id
				WHERE o.shopper_id = $1 AND p.approved
			), 0),
			COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.shopper_id = $1 AND e.order_id IS NULL), 0),
			COALESCE((SELECT SUM(e.amount) FROM expenses e WHERE e.shopper_id = $1 AND e.order_id IS NOT NULL), 0)
	`, shopperID).Scan(&totals.TotalIncome, &totals.GeneralExpenses, &totals.OrderExpenses)
	if err != nil {
		return nil, err
	}

	totals.NetMargin = totals.TotalIncome - totals.GeneralExpenses - totals.OrderExpenses
	return totals, nil
}
