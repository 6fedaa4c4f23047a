package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	t.Run("Success", func(t *testing.T) {
		order := &models.Order{
			UserID:        uuid.New(),
			CustomerName:  "Asha Verma",
			CustomerEmail: "asha@example.com",
			JourneyID:     uuid.New(),
			SeatIndexes:   models.IntArray{7, 8},
			Amount:        99900,
			Currency:      "INR",
		}

		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		err := repo.CreateOrder(context.Background(), order)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, order.ID)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.False(t, order.CreatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		order := &models.Order{
			UserID:    uuid.New(),
			JourneyID: uuid.New(),
			Amount:    49950,
			Currency:  "INR",
		}

		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.CreateOrder(context.Background(), order)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create order")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOrderByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	t.Run("Success", func(t *testing.T) {
		orderID := uuid.New()
		userID := uuid.New()

		mock.ExpectQuery(`SELECT id, user_id, customer_name`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "customer_name", "customer_email",
				"journey_id", "seats", "amount", "currency", "status",
				"payment_id", "payment_signature", "created_at", "paid_at",
			}).AddRow(
				orderID, userID, "Asha Verma", "asha@example.com",
				uuid.New(), []byte(`{7,8}`), 99900, "INR", "created",
				nil, nil, time.Now(), nil,
			))

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, orderID, order.ID)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.Equal(t, int64(99900), order.Amount)
		assert.Nil(t, order.PaymentID)
		assert.Nil(t, order.PaidAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		orderID := uuid.New()

		mock.ExpectQuery(`SELECT id, user_id, customer_name`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "customer_name", "customer_email",
				"journey_id", "seats", "amount", "currency", "status",
				"payment_id", "payment_signature", "created_at", "paid_at",
			}))

		order, err := repo.GetOrderByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Nil(t, order)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkOrderPaid(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	orderID := uuid.New()
	paymentID := "pay_N8qzL3fXj2"
	signature := "deadbeef"

	t.Run("First Delivery Transitions", func(t *testing.T) {
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(string(models.OrderStatusPaid), paymentID, signature, orderID, string(models.OrderStatusCreated)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.MarkOrderPaid(context.Background(), orderID, paymentID, signature)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Repeat Delivery Is No-Op", func(t *testing.T) {
		// Status is already paid, so the conditional update matches no rows.
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(string(models.OrderStatusPaid), paymentID, signature, orderID, string(models.OrderStatusCreated)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.MarkOrderPaid(context.Background(), orderID, paymentID, signature)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
