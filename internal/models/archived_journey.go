package models

import (
	"time"

	"github.com/google/uuid"
)

// ArchivedJourney is an immutable snapshot of a journey taken by the
// archival sweep once its departure instant has passed. SeatsSnapshot
// holds the final seat inventory as JSON for record keeping.
type ArchivedJourney struct {
	OriginalID    uuid.UUID `json:"original_id" db:"original_id"`
	Source        string    `json:"source" db:"source"`
	Destination   string    `json:"destination" db:"destination"`
	Date          string    `json:"date" db:"date"`
	Time          string    `json:"time" db:"time"`
	BusNumber     string    `json:"bus_number" db:"bus_number"`
	BusType       string    `json:"bus_type" db:"bus_type"`
	PricePerSeat  string    `json:"price_per_seat" db:"price_per_seat"`
	SeatsSnapshot []byte    `json:"-" db:"seats_snapshot"`
	ArchivedAt    time.Time `json:"archived_at" db:"archived_at"`
}

// SweepResult summarizes one archival sweep run.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
