package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/database"
	"github.com/routewise/bus-booking-backend/internal/middleware"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/routewise/bus-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// OrderHandler handles payment order endpoints.
type OrderHandler struct {
	orderService *services.OrderService
	userRepo     *database.UserRepository
	logger       *logrus.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *services.OrderService, userRepo *database.UserRepository, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// CreateOrder prices a seat selection and opens a pending payment order
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	journeyID, err := uuid.Parse(req.JourneyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid journey id"})
		return
	}

	user, err := h.userRepo.GetUserByID(userCtx.UserID)
	if err != nil || user == nil {
		h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to load account for order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	order, checkout, err := h.orderService.CreateOrder(c.Request.Context(), user, journeyID, req.Seats)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":    order,
		"checkout": checkout,
	})
}

// GetOrder returns one of the user's orders
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userCtx.UserID)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		h.logger.WithError(err).WithField("order_id", orderID).Error("Failed to load order")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// PaymentCallback finalizes an order after a successful checkout. The
// gateway retries callbacks, so a repeat delivery gets the same 200.
// POST /api/v1/payments/callback
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	var req models.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.orderService.FinalizeOrder(c.Request.Context(), orderID, req.PaymentID, req.Signature)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment verified",
		"order":   order,
	})
}

// respondOrderError maps order bridge errors onto HTTP responses.
func (h *OrderHandler) respondOrderError(c *gin.Context, err error) {
	var pricing *models.PricingError
	switch {
	case errors.Is(err, models.ErrInvalidSelection):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_selection",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrJourneyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Journey not found"})
	case errors.Is(err, models.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.As(err, &pricing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "pricing_error",
			"message": "This journey cannot be priced. Please contact support.",
		})
	case errors.Is(err, models.ErrPaymentVerificationFailed):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "verification_failed",
			"message": "Payment could not be verified",
		})
	default:
		h.logger.WithError(err).Error("Order operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Order operation failed"})
	}
}
