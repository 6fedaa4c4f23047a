package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/routewise/bus-booking-backend/internal/models"
)

// BookingRepository is the only mutation path for journey seat state.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// GenerateBookingReference generates a unique booking reference.
// Format: BK-YYYYMMDD-XXXXXX
func (r *BookingRepository) GenerateBookingReference() (string, error) {
	todayStr := time.Now().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		newRef := fmt.Sprintf("BK-%s-%s", todayStr, strings.ToUpper(hex.EncodeToString(randomBytes)))

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, newRef)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if count == 0 {
			return newRef, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// BookSeats marks the requested seats unavailable for the user and
// records the booking, in one transaction. The seat update is
// conditional on every requested seat still being available, so two
// overlapping commits can never both win: the UPDATE only touches rows
// with available = true, and if it touches fewer rows than requested
// the transaction rolls back with a SeatConflictError naming the
// conflicting indices.
func (r *BookingRepository) BookSeats(
	ctx context.Context,
	journeyID uuid.UUID,
	userID uuid.UUID,
	seatIndexes []int,
) (*models.BookingResponse, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Journey must still be live; its fields are denormalized onto
	// the booking so the record outlives archival.
	journey := &models.Journey{}
	err = tx.GetContext(ctx, journey, `
		SELECT id, source, destination, date, time,
		       bus_number, bus_type, price_per_seat, created_at, updated_at
		FROM journeys
		WHERE id = $1`, journeyID)
	if err == sql.ErrNoRows {
		return nil, models.ErrJourneyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journey: %w", err)
	}

	// 2. Conditional seat allocation. Only rows that are still
	// available are touched.
	result, err := tx.ExecContext(ctx, `
		UPDATE journey_seats
		SET available = false, booked_by = $1
		WHERE journey_id = $2 AND seat_index = ANY($3) AND available`,
		userID, journeyID, pq.Array(seatIndexes))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate seats: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read allocation result: %w", err)
	}
	if int(affected) != len(seatIndexes) {
		// Roll back before inspecting seat state so the read sees
		// committed rows, not our own partial allocation.
		tx.Rollback()
		conflicts, cErr := r.findConflicts(ctx, journeyID, seatIndexes)
		if cErr != nil {
			return nil, cErr
		}
		return nil, &models.SeatConflictError{JourneyID: journeyID, Indexes: conflicts}
	}

	// 3. Record the booking in the same transaction as the seat writes.
	ref, err := r.GenerateBookingReference()
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:               uuid.New(),
		BookingReference: ref,
		UserID:           userID,
		JourneyID:        journeyID,
		SeatIndexes:      models.IntArray(seatIndexes),
		Source:           journey.Source,
		Destination:      journey.Destination,
		Date:             journey.Date,
		Time:             journey.Time,
		BusNumber:        journey.BusNumber,
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bookings (
			id, booking_reference, user_id, journey_id, seats,
			source, destination, date, time, bus_number
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING booked_at`,
		booking.ID, booking.BookingReference, booking.UserID, booking.JourneyID, booking.SeatIndexes,
		booking.Source, booking.Destination, booking.Date, booking.Time, booking.BusNumber,
	).Scan(&booking.BookedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	seats, err := r.getSeats(ctx, journeyID)
	if err != nil {
		// The commit already succeeded; the seat refresh is best effort.
		seats = nil
	}

	return &models.BookingResponse{Booking: booking, Seats: seats}, nil
}

// findConflicts reports which of the requested seats are currently
// unavailable, for the SeatConflictError detail.
func (r *BookingRepository) findConflicts(
	ctx context.Context,
	journeyID uuid.UUID,
	seatIndexes []int,
) ([]int, error) {
	taken := []int{}
	err := r.db.SelectContext(ctx, &taken, `
		SELECT seat_index
		FROM journey_seats
		WHERE journey_id = $1
		  AND seat_index = ANY($2)
		  AND NOT available
		ORDER BY seat_index`,
		journeyID, pq.Array(seatIndexes))
	if err != nil {
		return nil, fmt.Errorf("failed to identify conflicting seats: %w", err)
	}
	return taken, nil
}

func (r *BookingRepository) getSeats(ctx context.Context, journeyID uuid.UUID) ([]models.Seat, error) {
	seats := []models.Seat{}
	err := r.db.SelectContext(ctx, &seats, `
		SELECT journey_id, seat_index, available, booked_by
		FROM journey_seats
		WHERE journey_id = $1
		ORDER BY seat_index`, journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}
	return seats, nil
}

// GetBookingsByUser returns a user's booking history, newest first.
func (r *BookingRepository) GetBookingsByUser(userID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	query := `
		SELECT id, booking_reference, user_id, journey_id, seats,
		       source, destination, date, time, bus_number, booked_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY booked_at DESC`

	if err := r.db.Select(&bookings, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}

	return bookings, nil
}

// GetBookingByID retrieves a single booking. Returns (nil, nil) when it
// does not exist.
func (r *BookingRepository) GetBookingByID(id uuid.UUID) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, booking_reference, user_id, journey_id, seats,
		       source, destination, date, time, bus_number, booked_at
		FROM bookings
		WHERE id = $1`

	err := r.db.Get(booking, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return booking, nil
}
