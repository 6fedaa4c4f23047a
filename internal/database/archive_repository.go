package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routewise/bus-booking-backend/internal/models"
)

// ArchiveRepository moves past-due journeys into the archive store.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository creates a new ArchiveRepository
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// ListLiveJourneys returns every journey currently in the live catalog.
func (r *ArchiveRepository) ListLiveJourneys() ([]models.Journey, error) {
	journeys := []models.Journey{}
	query := `
		SELECT id, source, destination, date, time,
		       bus_number, bus_type, price_per_seat, created_at, updated_at
		FROM journeys
		ORDER BY date, time`

	if err := r.db.Select(&journeys, query); err != nil {
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}

	return journeys, nil
}

// ArchiveJourney copies one journey (with its final seat inventory as a
// JSON snapshot) into archived_journeys and deletes the live record, as
// a single transaction. The copy is keyed on the original id with
// ON CONFLICT DO NOTHING, so re-running the sweep over the same journey
// cannot create a duplicate archive entry. Fails closed: on any error
// the journey stays live for the next sweep.
func (r *ArchiveRepository) ArchiveJourney(journey *models.Journey) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seats := []models.Seat{}
	err = tx.Select(&seats, `
		SELECT journey_id, seat_index, available, booked_by
		FROM journey_seats
		WHERE journey_id = $1
		ORDER BY seat_index`, journey.ID)
	if err != nil {
		return fmt.Errorf("failed to snapshot seats: %w", err)
	}

	snapshot, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("failed to serialize seat snapshot: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO archived_journeys (
			original_id, source, destination, date, time,
			bus_number, bus_type, price_per_seat, seats_snapshot, archived_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (original_id) DO NOTHING`,
		journey.ID, journey.Source, journey.Destination, journey.Date, journey.Time,
		journey.BusNumber, journey.BusType, journey.PricePerSeat, snapshot)
	if err != nil {
		return fmt.Errorf("failed to write archive copy: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM journey_seats WHERE journey_id = $1`, journey.ID); err != nil {
		return fmt.Errorf("failed to delete seat inventory: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM journeys WHERE id = $1`, journey.ID); err != nil {
		return fmt.Errorf("failed to delete live journey: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetArchivedJourney retrieves an archive entry by its original id.
// Returns (nil, nil) when no entry exists.
func (r *ArchiveRepository) GetArchivedJourney(originalID uuid.UUID) (*models.ArchivedJourney, error) {
	archived := &models.ArchivedJourney{}
	query := `
		SELECT original_id, source, destination, date, time,
		       bus_number, bus_type, price_per_seat, seats_snapshot, archived_at
		FROM archived_journeys
		WHERE original_id = $1`

	err := r.db.Get(archived, query, originalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived journey: %w", err)
	}

	return archived, nil
}
