package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SeatCount is the fixed size of every journey's seat inventory (8 rows x 5).
const SeatCount = 40

// JourneyDateLayout and JourneyTimeLayout are the wire formats for the
// date and time fields, exactly as the admin form submits them.
const (
	JourneyDateLayout = "2006-01-02"
	JourneyTimeLayout = "15:04"
)

// Journey represents a scheduled bus trip with a fixed 40-seat inventory.
// PricePerSeat is stored as entered by the administrator and validated
// when an order is priced.
type Journey struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Source       string    `json:"source" db:"source"`
	Destination  string    `json:"destination" db:"destination"`
	Date         string    `json:"date" db:"date"`
	Time         string    `json:"time" db:"time"`
	BusNumber    string    `json:"bus_number" db:"bus_number"`
	BusType      string    `json:"bus_type" db:"bus_type"`
	PricePerSeat string    `json:"price_per_seat" db:"price_per_seat"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Seats []Seat `json:"seats,omitempty"`
}

// Seat is one position in a journey's seat inventory. A seat is
// unavailable if and only if it carries a booking user reference.
type Seat struct {
	JourneyID uuid.UUID  `json:"-" db:"journey_id"`
	SeatIndex int        `json:"seat_index" db:"seat_index"`
	Available bool       `json:"available" db:"available"`
	BookedBy  *uuid.UUID `json:"booked_by,omitempty" db:"booked_by"`
}

// JourneySummary is a catalog row for search results, with the live
// available-seat count instead of the full inventory.
type JourneySummary struct {
	Journey
	AvailableSeats int `json:"available_seats" db:"available_seats"`
}

// ParsePricePerSeat parses the stored price string into whole currency
// units. Returns a PricingError when the value is missing, non-numeric
// or non-positive.
func (j *Journey) ParsePricePerSeat() (float64, error) {
	raw := strings.TrimSpace(j.PricePerSeat)
	if raw == "" {
		return 0, &PricingError{JourneyID: j.ID, RawPrice: raw, Reason: "price per seat is not set"}
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &PricingError{JourneyID: j.ID, RawPrice: raw, Reason: "price per seat is not numeric"}
	}
	if price <= 0 {
		return 0, &PricingError{JourneyID: j.ID, RawPrice: raw, Reason: "price per seat must be positive"}
	}
	return price, nil
}

// DepartureInstant combines the date and time fields into an instant in
// the given canonical zone.
func (j *Journey) DepartureInstant(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(
		JourneyDateLayout+" "+JourneyTimeLayout,
		fmt.Sprintf("%s %s", strings.TrimSpace(j.Date), strings.TrimSpace(j.Time)),
		loc,
	)
}

// CreateJourneyRequest is the admin payload for creating a journey.
type CreateJourneyRequest struct {
	Source       string `json:"source" binding:"required"`
	Destination  string `json:"destination" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
	BusNumber    string `json:"bus_number" binding:"required"`
	BusType      string `json:"bus_type"`
	PricePerSeat string `json:"price_per_seat" binding:"required"`
}

// Validate checks field formats before the journey reaches the catalog.
// Price is validated here so a malformed price never reaches order time.
func (r *CreateJourneyRequest) Validate() error {
	if _, err := time.Parse(JourneyDateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", r.Date)
	}
	if _, err := time.Parse(JourneyTimeLayout, r.Time); err != nil {
		return fmt.Errorf("invalid time %q: expected HH:MM", r.Time)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(r.PricePerSeat), 64)
	if err != nil || price <= 0 {
		return fmt.Errorf("invalid price_per_seat %q: expected a positive number", r.PricePerSeat)
	}
	return nil
}

// JourneySearchFilter narrows the catalog listing.
type JourneySearchFilter struct {
	Source      string
	Destination string
	Date        string
}
