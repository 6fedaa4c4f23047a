package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingStore is the persistence surface the committer needs.
type BookingStore interface {
	BookSeats(ctx context.Context, journeyID, userID uuid.UUID, seatIndexes []int) (*models.BookingResponse, error)
	GetBookingsByUser(userID uuid.UUID) ([]models.Booking, error)
	GetBookingByID(id uuid.UUID) (*models.Booking, error)
}

// BookingService commits seat selections. It is the only caller of the
// seat mutation path; everything it surfaces is one of the domain
// errors in models.
type BookingService struct {
	store         BookingStore
	commitTimeout time.Duration
	logger        *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(store BookingStore, commitTimeout time.Duration, logger *logrus.Logger) *BookingService {
	return &BookingService{
		store:         store,
		commitTimeout: commitTimeout,
		logger:        logger,
	}
}

// CommitBooking atomically marks the selected seats unavailable for the
// user and records the booking. Either both writes apply or neither
// does. The commit is bounded by the configured timeout, surfaced as
// ErrCommitTimeout so callers can retry, distinct from a seat conflict
// where they must re-select.
func (s *BookingService) CommitBooking(
	ctx context.Context,
	journeyID uuid.UUID,
	userID uuid.UUID,
	seatIndexes []int,
) (*models.BookingResponse, error) {
	if err := validateSelection(seatIndexes); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	response, err := s.store.BookSeats(ctx, journeyID, userID, seatIndexes)
	if err != nil {
		var conflict *models.SeatConflictError
		switch {
		case errors.As(err, &conflict):
			s.logger.WithFields(logrus.Fields{
				"journey_id":        journeyID,
				"user_id":           userID,
				"conflicting_seats": conflict.Indexes,
			}).Warn("Seat conflict during booking commit")
			return nil, err
		case errors.Is(err, models.ErrJourneyNotFound):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded):
			s.logger.WithFields(logrus.Fields{
				"journey_id": journeyID,
				"user_id":    userID,
				"timeout":    s.commitTimeout,
			}).Error("Booking commit timed out")
			return nil, models.ErrCommitTimeout
		default:
			return nil, fmt.Errorf("booking commit failed: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        response.Booking.ID,
		"booking_reference": response.Booking.BookingReference,
		"journey_id":        journeyID,
		"user_id":           userID,
		"seats":             seatIndexes,
	}).Info("Booking committed")

	return response, nil
}

// ListBookings returns the user's booking history.
func (s *BookingService) ListBookings(userID uuid.UUID) ([]models.Booking, error) {
	return s.store.GetBookingsByUser(userID)
}

// GetBooking retrieves a booking owned by the user. Ownership mismatch
// is indistinguishable from absence.
func (s *BookingService) GetBooking(id, userID uuid.UUID) (*models.Booking, error) {
	booking, err := s.store.GetBookingByID(id)
	if err != nil {
		return nil, err
	}
	if booking == nil || booking.UserID != userID {
		return nil, models.ErrBookingNotFound
	}
	return booking, nil
}

// validateSelection rejects empty, out-of-range and duplicate indices
// before any I/O happens.
func validateSelection(seatIndexes []int) error {
	if len(seatIndexes) == 0 {
		return fmt.Errorf("%w: no seats selected", models.ErrInvalidSelection)
	}
	seen := make(map[int]struct{}, len(seatIndexes))
	for _, idx := range seatIndexes {
		if idx < 0 || idx >= models.SeatCount {
			return fmt.Errorf("%w: seat index %d out of range [0, %d)", models.ErrInvalidSelection, idx, models.SeatCount)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: duplicate seat index %d", models.ErrInvalidSelection, idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}
