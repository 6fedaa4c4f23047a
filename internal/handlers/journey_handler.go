package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/database"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// JourneyHandler handles the journey catalog endpoints.
type JourneyHandler struct {
	journeyRepo *database.JourneyRepository
	logger      *logrus.Logger
}

// NewJourneyHandler creates a new JourneyHandler
func NewJourneyHandler(journeyRepo *database.JourneyRepository, logger *logrus.Logger) *JourneyHandler {
	return &JourneyHandler{
		journeyRepo: journeyRepo,
		logger:      logger,
	}
}

// ListJourneys lists catalog entries, optionally filtered by route and date
// GET /api/v1/journeys?source=&destination=&date=
func (h *JourneyHandler) ListJourneys(c *gin.Context) {
	filter := models.JourneySearchFilter{
		Source:      c.Query("source"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
	}

	journeys, err := h.journeyRepo.SearchJourneys(filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to search journeys")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search journeys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"journeys": journeys,
		"count":    len(journeys),
	})
}

// GetJourney returns a journey with its full seat inventory
// GET /api/v1/journeys/:id
func (h *JourneyHandler) GetJourney(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid journey id"})
		return
	}

	journey, err := h.journeyRepo.GetJourneyWithSeats(id)
	if err != nil {
		h.logger.WithError(err).WithField("journey_id", id).Error("Failed to get journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get journey"})
		return
	}
	if journey == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Journey not found"})
		return
	}

	c.JSON(http.StatusOK, journey)
}

// CreateJourney adds a journey with a fresh 40-seat inventory (admin only)
// POST /api/v1/journeys
func (h *JourneyHandler) CreateJourney(c *gin.Context) {
	var req models.CreateJourneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	journey := &models.Journey{
		Source:       req.Source,
		Destination:  req.Destination,
		Date:         req.Date,
		Time:         req.Time,
		BusNumber:    req.BusNumber,
		BusType:      req.BusType,
		PricePerSeat: req.PricePerSeat,
	}

	if err := h.journeyRepo.CreateJourney(journey); err != nil {
		h.logger.WithError(err).Error("Failed to create journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create journey"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"journey_id":  journey.ID,
		"source":      journey.Source,
		"destination": journey.Destination,
		"date":        journey.Date,
	}).Info("Journey created")

	c.JSON(http.StatusCreated, journey)
}

// DeleteJourney removes a journey and its seats (admin only)
// DELETE /api/v1/journeys/:id
func (h *JourneyHandler) DeleteJourney(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid journey id"})
		return
	}

	if err := h.journeyRepo.DeleteJourney(id); err != nil {
		if errors.Is(err, models.ErrJourneyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Journey not found"})
			return
		}
		h.logger.WithError(err).WithField("journey_id", id).Error("Failed to delete journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete journey"})
		return
	}

	h.logger.WithField("journey_id", id).Info("Journey deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Journey deleted"})
}
