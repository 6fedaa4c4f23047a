package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeBookingStore implements BookingStore with pluggable behavior.
type fakeBookingStore struct {
	bookSeatsFn func(ctx context.Context, journeyID, userID uuid.UUID, seatIndexes []int) (*models.BookingResponse, error)
	bookings    []models.Booking
	calls       int
}

func (f *fakeBookingStore) BookSeats(ctx context.Context, journeyID, userID uuid.UUID, seatIndexes []int) (*models.BookingResponse, error) {
	f.calls++
	return f.bookSeatsFn(ctx, journeyID, userID, seatIndexes)
}

func (f *fakeBookingStore) GetBookingsByUser(userID uuid.UUID) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetBookingByID(id uuid.UUID) (*models.Booking, error) {
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			return &f.bookings[i], nil
		}
	}
	return nil, nil
}

func TestCommitBooking(t *testing.T) {
	journeyID := uuid.New()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		store := &fakeBookingStore{
			bookSeatsFn: func(ctx context.Context, jID, uID uuid.UUID, seats []int) (*models.BookingResponse, error) {
				// The commit must run under a deadline.
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)

				return &models.BookingResponse{
					Booking: &models.Booking{
						ID:               uuid.New(),
						BookingReference: "BK-20260901-A1B2C3",
						UserID:           uID,
						JourneyID:        jID,
						SeatIndexes:      models.IntArray(seats),
					},
				}, nil
			},
		}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		response, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{0, 1})
		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, models.IntArray{0, 1}, response.Booking.SeatIndexes)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("Rejects Empty Selection", func(t *testing.T) {
		store := &fakeBookingStore{}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, nil)
		assert.ErrorIs(t, err, models.ErrInvalidSelection)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("Rejects Out Of Range Index", func(t *testing.T) {
		store := &fakeBookingStore{}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{models.SeatCount})
		assert.ErrorIs(t, err, models.ErrInvalidSelection)

		_, err = svc.CommitBooking(context.Background(), journeyID, userID, []int{-1})
		assert.ErrorIs(t, err, models.ErrInvalidSelection)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("Rejects Duplicate Indices", func(t *testing.T) {
		store := &fakeBookingStore{}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{5, 5})
		assert.ErrorIs(t, err, models.ErrInvalidSelection)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("Surfaces Seat Conflict", func(t *testing.T) {
		store := &fakeBookingStore{
			bookSeatsFn: func(ctx context.Context, jID, uID uuid.UUID, seats []int) (*models.BookingResponse, error) {
				return nil, &models.SeatConflictError{JourneyID: jID, Indexes: []int{1}}
			},
		}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{0, 1})

		var conflict *models.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []int{1}, conflict.Indexes)
	})

	t.Run("Surfaces Journey Not Found", func(t *testing.T) {
		store := &fakeBookingStore{
			bookSeatsFn: func(ctx context.Context, jID, uID uuid.UUID, seats []int) (*models.BookingResponse, error) {
				return nil, models.ErrJourneyNotFound
			},
		}
		svc := NewBookingService(store, 10*time.Second, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{0})
		assert.ErrorIs(t, err, models.ErrJourneyNotFound)
	})

	t.Run("Maps Deadline To Commit Timeout", func(t *testing.T) {
		store := &fakeBookingStore{
			bookSeatsFn: func(ctx context.Context, jID, uID uuid.UUID, seats []int) (*models.BookingResponse, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		svc := NewBookingService(store, 5*time.Millisecond, testLogger())

		_, err := svc.CommitBooking(context.Background(), journeyID, userID, []int{0})
		assert.ErrorIs(t, err, models.ErrCommitTimeout)
	})
}

func TestGetBooking(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	bookingID := uuid.New()

	store := &fakeBookingStore{
		bookings: []models.Booking{{
			ID:               bookingID,
			BookingReference: "BK-20260901-A1B2C3",
			UserID:           owner,
		}},
	}
	svc := NewBookingService(store, 10*time.Second, testLogger())

	t.Run("Owner Can Read", func(t *testing.T) {
		booking, err := svc.GetBooking(bookingID, owner)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
	})

	t.Run("Other User Sees Not Found", func(t *testing.T) {
		_, err := svc.GetBooking(bookingID, stranger)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})

	t.Run("Missing Booking", func(t *testing.T) {
		_, err := svc.GetBooking(uuid.New(), owner)
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})
}

func TestListBookings(t *testing.T) {
	owner := uuid.New()
	store := &fakeBookingStore{
		bookings: []models.Booking{
			{ID: uuid.New(), UserID: owner},
			{ID: uuid.New(), UserID: uuid.New()},
		},
	}
	svc := NewBookingService(store, 10*time.Second, testLogger())

	bookings, err := svc.ListBookings(owner)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}
