package reviews

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jvz16/traeme/internal/domain"
)

var (
	ErrNotDelivered    = errors.New("order is not delivered")
	ErrAlreadyReviewed = errors.New("order already has a review")
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review for a delivered order and recomputes the
// shopper's rating as the average over all their reviews, in one
// transaction. Returns nil, nil when the order does not belong to the
// customer.
func (r *ReviewRepository) Create(ctx context.Context, orderID, customerID string, rating int, comment string) (*domain.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		status    string
		shopperID sql.NullString
	)
	err = tx.QueryRowContext(ctx, `
		SELECT status, shopper_id
		FROM orders
		WHERE id = $1 AND customer_id = $2
	`, orderID, customerID).Scan(&status, &shopperID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if domain.OrderStatus(status) != domain.OrderStatusDelivered || !shopperID.Valid {
		return nil, ErrNotDelivered
	}

	var existing int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE order_id = $1`, orderID).Scan(&existing)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadyReviewed
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ShopperID:  shopperID.String,
		CustomerID: customerID,
		Rating:     rating,
		Comment:    comment,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reviews (id, order_id, shopper_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`, review.ID, review.OrderID, review.ShopperID, review.CustomerID,
		review.Rating, review.Comment).Scan(&review.CreatedAt)
	if err != nil {
		// Two concurrent reviews can both pass the count check. The
		// unique constraint on order_id catches the loser.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shopper_profiles
		SET rating = (SELECT AVG(rating) FROM reviews WHERE shopper_id = $1), updated_at = NOW()
		WHERE id = $1
	`, review.ShopperID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return review, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *ReviewRepository) ListForShopper(ctx context.Context, shopperID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, shopper_id, customer_id, rating, comment, created_at
		FROM reviews
		WHERE shopper_id = $1
		ORDER BY created_at DESC
	`, shopperID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.OrderID, &review.ShopperID, &review.CustomerID,
			&review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}
