package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is an immutable record of a committed seat selection. Journey
// fields are denormalized at commit time so the booking survives the
// journey's archival.
type Booking struct {
	ID               uuid.UUID `json:"id" db:"id"`
	BookingReference string    `json:"booking_reference" db:"booking_reference"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	JourneyID        uuid.UUID `json:"journey_id" db:"journey_id"`
	SeatIndexes      IntArray  `json:"seats" db:"seats"`
	Source           string    `json:"source" db:"source"`
	Destination      string    `json:"destination" db:"destination"`
	Date             string    `json:"date" db:"date"`
	Time             string    `json:"time" db:"time"`
	BusNumber        string    `json:"bus_number" db:"bus_number"`
	BookedAt         time.Time `json:"booked_at" db:"booked_at"`
}

// BookSeatsRequest is the payload for committing a seat selection.
type BookSeatsRequest struct {
	JourneyID string `json:"journey_id" binding:"required"`
	Seats     []int  `json:"seats" binding:"required"`
}

// BookingResponse is returned after a successful commit.
type BookingResponse struct {
	Booking *Booking `json:"booking"`
	Seats   []Seat   `json:"updated_seats,omitempty"`
}
