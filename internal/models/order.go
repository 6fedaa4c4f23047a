package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle of a payment order. The only
// allowed transition is created -> paid.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
)

// Order is a pending or settled payment for a seat selection. Amount is
// in minor currency units (paise). Customer fields are denormalized
// from the identity record at creation time.
type Order struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	UserID           uuid.UUID   `json:"user_id" db:"user_id"`
	CustomerName     string      `json:"customer_name" db:"customer_name"`
	CustomerEmail    string      `json:"customer_email" db:"customer_email"`
	JourneyID        uuid.UUID   `json:"journey_id" db:"journey_id"`
	SeatIndexes      IntArray    `json:"seats" db:"seats"`
	Amount           int64       `json:"amount" db:"amount"`
	Currency         string      `json:"currency" db:"currency"`
	Status           OrderStatus `json:"status" db:"status"`
	PaymentID        *string     `json:"payment_id,omitempty" db:"payment_id"`
	PaymentSignature *string     `json:"-" db:"payment_signature"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	PaidAt           *time.Time  `json:"paid_at,omitempty" db:"paid_at"`
}

// CreateOrderRequest is the payload for creating a payment order.
type CreateOrderRequest struct {
	JourneyID string `json:"journey_id" binding:"required"`
	Seats     []int  `json:"seats" binding:"required"`
}

// CheckoutOptions is everything the client needs to open the external
// checkout for an order. The secret never leaves the server.
type CheckoutOptions struct {
	OrderID       uuid.UUID `json:"order_id"`
	GatewayKeyID  string    `json:"gateway_key_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
}

// PaymentCallbackRequest is the success callback from the external
// checkout. Treated as untrusted input until the signature is verified.
type PaymentCallbackRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}
