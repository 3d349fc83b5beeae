package billing

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/jvz16/traeme/internal/domain"
)

type BillingRepository struct {
	db *sql.DB
}

func NewBillingRepository(db *sql.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// OrderOwnedByShopper and OrderOwnedByCustomer gate every money mutation:
// a payment or expense may only be attached through the owning party.
func (r *BillingRepository) OrderOwnedByShopper(ctx context.Context, orderID, shopperID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM orders WHERE id = $1 AND shopper_id = $2`, orderID, shopperID)
}

func (r *BillingRepository) OrderOwnedByCustomer(ctx context.Context, orderID, customerID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM orders WHERE id = $1 AND customer_id = $2`, orderID, customerID)
}

func (r *BillingRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *BillingRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	payment.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, kind, method, note, created_by, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, payment.ID, payment.OrderID, payment.Amount, payment.Kind, payment.Method,
		payment.Note, payment.CreatedBy, payment.Approved, payment.CreatedAt)
	return err
}

// ApprovePayment flips a customer-reported payment to approved. Scoped to
// the assigned shopper through the order row.
func (r *BillingRepository) ApprovePayment(ctx context.Context, orderID, paymentID, shopperID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payments p
		SET approved = TRUE, updated_at = NOW()
		FROM orders o
		WHERE p.id = $2 AND p.order_id = o.id AND o.id = $1 AND o.shopper_id = $3
	`, orderID, paymentID, shopperID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *BillingRepository) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, amount, kind, method, note, created_by, approved, created_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Kind, &p.Method, &p.Note,
			&p.CreatedBy, &p.Approved, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *BillingRepository) CreateExpense(ctx context.Context, expense *domain.Expense) error {
	expense.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, order_id, shopper_id, category, amount, description, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, expense.ID, expense.OrderID, expense.ShopperID, expense.Category, expense.Amount,
		expense.Description, expense.Currency, expense.CreatedAt)
	return err
}

func (r *BillingRepository) UpdateExpenseAmount(ctx context.Context, expenseID, orderID, shopperID string, amount int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET amount = $4, updated_at = NOW()
		WHERE id = $1 AND order_id = $2 AND shopper_id = $3
	`, expenseID, orderID, shopperID, amount)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *BillingRepository) DeleteExpense(ctx context.Context, expenseID, orderID, shopperID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM expenses
		WHERE id = $1 AND order_id = $2 AND shopper_id = $3
	`, expenseID, orderID, shopperID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *BillingRepository) ListExpenses(ctx context.Context, orderID string) ([]domain.Expense, error) {
	return r.listExpensesWhere(ctx, "order_id = $1", orderID)
}

// ListGeneralExpenses returns a shopper's overhead expenses, the ones not
// tied to any order.
func (r *BillingRepository) ListGeneralExpenses(ctx context.Context, shopperID string) ([]domain.Expense, error) {
	return r.listExpensesWhere(ctx, "shopper_id = $1 AND order_id IS NULL", shopperID)
}

func (r *BillingRepository) listExpensesWhere(ctx context.Context, where string, args ...any) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, shopper_id, category, amount, description, currency, created_at
		FROM expenses
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	expenses := []domain.Expense{}
	for rows.Next() {
		var e domain.Expense
		var orderID sql.NullString
		if err := rows.Scan(&e.ID, &orderID, &e.ShopperID, &e.Category, &e.Amount,
			&e.Description, &e.Currency, &e.CreatedAt); err != nil {
			return nil, err
		}
		if orderID.Valid {
			e.OrderID = &orderID.String
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (r *BillingRepository) UpdateGeneralExpense(ctx context.Context, expenseID, shopperID string, expense *domain.Expense) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category = $3, amount = $4, description = $5, currency = $6, updated_at = NOW()
		WHERE id = $1 AND shopper_id = $2 AND order_id IS NULL
	`, expenseID, shopperID, expense.Category, expense.Amount, expense.Description, expense.Currency)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}
