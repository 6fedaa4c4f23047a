package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/database"
	"github.com/routewise/bus-booking-backend/internal/middleware"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/routewise/bus-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles seat booking endpoints.
type BookingHandler struct {
	bookingService *services.BookingService
	ticketService  *services.TicketService
	userRepo       *database.UserRepository
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingService *services.BookingService,
	ticketService *services.TicketService,
	userRepo *database.UserRepository,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		ticketService:  ticketService,
		userRepo:       userRepo,
		logger:         logger,
	}
}

// CreateBooking commits a seat selection
// POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.BookSeatsRequest
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

	response, err := h.bookingService.CommitBooking(c.Request.Context(), journeyID, userCtx.UserID, req.Seats)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListMyBookings lists the authenticated user's bookings
// GET /api/v1/bookings
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookings, err := h.bookingService.ListBookings(userCtx.UserID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetTicket streams the PDF e-ticket for one of the user's bookings
// GET /api/v1/bookings/:id/ticket
func (h *BookingHandler) GetTicket(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id"})
		return
	}

	booking, err := h.bookingService.GetBooking(bookingID, userCtx.UserID)
	if err != nil {
		if errors.Is(err, models.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		h.logger.WithError(err).WithField("booking_id", bookingID).Error("Failed to load booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load booking"})
		return
	}

	user, err := h.userRepo.GetUserByID(userCtx.UserID)
	if err != nil || user == nil {
		h.logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to load passenger for ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate ticket"})
		return
	}

	pdfBytes, filename, err := h.ticketService.GenerateTicket(booking, user)
	if err != nil {
		h.logger.WithError(err).WithField("booking_id", bookingID).Error("Failed to render ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate ticket"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// respondBookingError maps committer errors onto HTTP responses.
func (h *BookingHandler) respondBookingError(c *gin.Context, err error) {
	var conflict *models.SeatConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":             "seat_conflict",
			"message":           "Some of the selected seats were just taken. Please pick again.",
			"conflicting_seats": conflict.Indexes,
		})
	case errors.Is(err, models.ErrInvalidSelection):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_selection",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrJourneyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Journey not found"})
	case errors.Is(err, models.ErrCommitTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":   "commit_timeout",
			"message": "The booking could not be confirmed in time. No seats were taken; please retry.",
		})
	default:
		h.logger.WithError(err).Error("Booking commit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to book seats"})
	}
}
