package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/config"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// OrderStore is the persistence surface of the payment order bridge.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentID, paymentSignature string) (int64, error)
}

// JourneyGetter loads catalog entries for pricing.
type JourneyGetter interface {
	GetJourneyByID(id uuid.UUID) (*models.Journey, error)
}

// OrderService creates pending payment orders for confirmed seat
// selections and finalizes them on the gateway's success callback. The
// checkout itself (script, modal, redirect) is an opaque external
// collaborator; this service only owns the order-state contract around
// it.
type OrderService struct {
	orders   OrderStore
	journeys JourneyGetter
	config   config.PaymentConfig
	logger   *logrus.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orders OrderStore, journeys JourneyGetter, cfg config.PaymentConfig, logger *logrus.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		journeys: journeys,
		config:   cfg,
		logger:   logger,
	}
}

// CreateOrder prices the selection and writes a pending order. Amount
// is seat count x price per seat, converted to minor currency units.
// A missing or non-numeric journey price fails with a PricingError; it
// should have been caught at journey creation, so it also gets logged
// for an administrator.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	user *models.User,
	journeyID uuid.UUID,
	seatIndexes []int,
) (*models.Order, *models.CheckoutOptions, error) {
	if err := validateSelection(seatIndexes); err != nil {
		return nil, nil, err
	}

	journey, err := s.journeys.GetJourneyByID(journeyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load journey: %w", err)
	}
	if journey == nil {
		return nil, nil, models.ErrJourneyNotFound
	}

	price, err := journey.ParsePricePerSeat()
	if err != nil {
		s.logger.WithError(err).WithField("journey_id", journeyID).
			Error("Journey has malformed price configuration")
		return nil, nil, err
	}

	// Minor units per seat first, then multiply, so 499.99 x 3 cannot
	// drift through float rounding.
	amount := int64(math.Round(price*100)) * int64(len(seatIndexes))

	order := &models.Order{
		UserID:        user.ID,
		CustomerName:  user.FullName(),
		CustomerEmail: user.Email,
		JourneyID:     journeyID,
		SeatIndexes:   models.IntArray(seatIndexes),
		Amount:        amount,
		Currency:      s.config.Currency,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"user_id":    user.ID,
		"journey_id": journeyID,
		"amount":     amount,
		"currency":   order.Currency,
	}).Info("Payment order created")

	options := &models.CheckoutOptions{
		OrderID:       order.ID,
		GatewayKeyID:  s.config.KeyID,
		Amount:        amount,
		Currency:      order.Currency,
		Description:   fmt.Sprintf("Bus ticket %s - %s", journey.Source, journey.Destination),
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
	}

	return order, options, nil
}

// FinalizeOrder applies the created -> paid transition after verifying
// the callback signature. Safe under at-least-once delivery: a repeat
// of an already-applied callback returns the paid order unchanged,
// while a paid order with mismatching payment identifiers is rejected.
func (s *OrderService) FinalizeOrder(
	ctx context.Context,
	orderID uuid.UUID,
	paymentID string,
	signature string,
) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, models.ErrOrderNotFound
	}

	// The callback is untrusted input. Nothing transitions until the
	// signature over order and payment identifiers checks out.
	if !s.VerifySignature(orderID.String(), paymentID, signature) {
		s.logger.WithFields(logrus.Fields{
			"order_id":   orderID,
			"payment_id": paymentID,
		}).Warn("Payment callback signature mismatch")
		return nil, models.ErrPaymentVerificationFailed
	}

	affected, err := s.orders.MarkOrderPaid(ctx, orderID, paymentID, signature)
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		// Someone already finalized this order. Re-read and decide
		// whether this is the same callback delivered again.
		order, err = s.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, models.ErrOrderNotFound
		}
		if order.Status == models.OrderStatusPaid && order.PaymentID != nil && *order.PaymentID == paymentID {
			s.logger.WithField("order_id", orderID).Info("Duplicate payment callback ignored")
			return order, nil
		}
		return nil, models.ErrPaymentVerificationFailed
	}

	order, err = s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   orderID,
		"payment_id": paymentID,
		"amount":     order.Amount,
	}).Info("Order finalized as paid")

	return order, nil
}

// GetOrder retrieves an order owned by the user.
func (s *OrderService) GetOrder(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

// Signature computes the expected callback signature:
// hex(HMAC-SHA256(orderID|paymentID, gateway secret)).
func (s *OrderService) Signature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the presented signature against the expected
// one in constant time.
func (s *OrderService) VerifySignature(orderID, paymentID, presented string) bool {
	expected := s.Signature(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(presented))
}
