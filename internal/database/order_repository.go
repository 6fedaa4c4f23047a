package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routewise/bus-booking-backend/internal/models"
)

// OrderRepository handles payment order database operations.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts a new order with status created.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.Status = models.OrderStatusCreated

	query := `
		INSERT INTO orders (
			id, user_id, customer_name, customer_email,
			journey_id, seats, amount, currency, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		order.ID, order.UserID, order.CustomerName, order.CustomerEmail,
		order.JourneyID, order.SeatIndexes, order.Amount, order.Currency, order.Status,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetOrderByID retrieves an order. Returns (nil, nil) when it does not
// exist.
func (r *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, user_id, customer_name, customer_email,
		       journey_id, seats, amount, currency, status,
		       payment_id, payment_signature, created_at, paid_at
		FROM orders
		WHERE id = $1`

	err := r.db.GetContext(ctx, order, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return order, nil
}

// MarkOrderPaid applies the created -> paid transition. The update is
// conditional on the current status, so a second delivery of the same
// callback affects zero rows and the caller can treat it as a no-op.
// Returns the number of rows transitioned (0 or 1).
func (r *OrderRepository) MarkOrderPaid(
	ctx context.Context,
	orderID uuid.UUID,
	paymentID string,
	paymentSignature string,
) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_id = $2, payment_signature = $3, paid_at = now()
		WHERE id = $4 AND status = $5`,
		models.OrderStatusPaid, paymentID, paymentSignature,
		orderID, models.OrderStatusCreated)
	if err != nil {
		return 0, fmt.Errorf("failed to mark order paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read update result: %w", err)
	}

	return affected, nil
}
