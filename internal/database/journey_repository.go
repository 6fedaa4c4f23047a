package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routewise/bus-booking-backend/internal/models"
)

// JourneyRepository handles journey catalog database operations.
type JourneyRepository struct {
	db *sqlx.DB
}

// NewJourneyRepository creates a new JourneyRepository
func NewJourneyRepository(db *sqlx.DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// CreateJourney inserts a journey and its fixed 40-seat inventory in a
// single transaction.
func (r *JourneyRepository) CreateJourney(journey *models.Journey) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO journeys (
			id, source, destination, date, time,
			bus_number, bus_type, price_per_seat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	if journey.ID == uuid.Nil {
		journey.ID = uuid.New()
	}

	err = tx.QueryRowx(query,
		journey.ID, journey.Source, journey.Destination, journey.Date, journey.Time,
		journey.BusNumber, journey.BusType, journey.PricePerSeat,
	).Scan(&journey.CreatedAt, &journey.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create journey: %w", err)
	}

	// Seat rows exist only as elements of their journey's inventory.
	values := make([]string, 0, models.SeatCount)
	args := make([]interface{}, 0, models.SeatCount+1)
	args = append(args, journey.ID)
	for i := 0; i < models.SeatCount; i++ {
		values = append(values, fmt.Sprintf("($1, $%d, true)", len(args)+1))
		args = append(args, i)
	}
	seatQuery := fmt.Sprintf(
		`INSERT INTO journey_seats (journey_id, seat_index, available) VALUES %s`,
		strings.Join(values, ", "),
	)
	if _, err := tx.Exec(seatQuery, args...); err != nil {
		return fmt.Errorf("failed to create seat inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	journey.Seats = make([]models.Seat, models.SeatCount)
	for i := range journey.Seats {
		journey.Seats[i] = models.Seat{JourneyID: journey.ID, SeatIndex: i, Available: true}
	}

	return nil
}

// GetJourneyByID retrieves a journey without its seat inventory.
// Returns (nil, nil) when the journey does not exist.
func (r *JourneyRepository) GetJourneyByID(id uuid.UUID) (*models.Journey, error) {
	journey := &models.Journey{}
	query := `
		SELECT id, source, destination, date, time,
		       bus_number, bus_type, price_per_seat, created_at, updated_at
		FROM journeys
		WHERE id = $1`

	err := r.db.Get(journey, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journey: %w", err)
	}

	return journey, nil
}

// GetJourneyWithSeats retrieves a journey and its ordered seat sequence.
func (r *JourneyRepository) GetJourneyWithSeats(id uuid.UUID) (*models.Journey, error) {
	journey, err := r.GetJourneyByID(id)
	if err != nil || journey == nil {
		return journey, err
	}

	seats, err := r.GetSeats(id)
	if err != nil {
		return nil, err
	}
	journey.Seats = seats

	return journey, nil
}

// GetSeats returns the seat sequence of a journey ordered by index.
func (r *JourneyRepository) GetSeats(journeyID uuid.UUID) ([]models.Seat, error) {
	seats := []models.Seat{}
	query := `
		SELECT journey_id, seat_index, available, booked_by
		FROM journey_seats
		WHERE journey_id = $1
		ORDER BY seat_index`

	if err := r.db.Select(&seats, query, journeyID); err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	return seats, nil
}

// SearchJourneys lists catalog entries matching the filter, newest date
// first, with live available-seat counts. City matches are
// case-insensitive; empty filter fields match everything.
func (r *JourneyRepository) SearchJourneys(filter models.JourneySearchFilter) ([]models.JourneySummary, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("LOWER(j.source) = LOWER($%d)", len(args)))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		conditions = append(conditions, fmt.Sprintf("LOWER(j.destination) = LOWER($%d)", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("j.date = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT j.id, j.source, j.destination, j.date, j.time,
		       j.bus_number, j.bus_type, j.price_per_seat, j.created_at, j.updated_at,
		       COUNT(s.seat_index) FILTER (WHERE s.available) AS available_seats
		FROM journeys j
		LEFT JOIN journey_seats s ON s.journey_id = j.id
		WHERE %s
		GROUP BY j.id
		ORDER BY j.date, j.time`,
		strings.Join(conditions, " AND "),
	)

	results := []models.JourneySummary{}
	if err := r.db.Select(&results, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search journeys: %w", err)
	}

	return results, nil
}

// DeleteJourney removes a journey and its seat inventory. Returns
// models.ErrJourneyNotFound when no live journey matches.
func (r *JourneyRepository) DeleteJourney(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM journeys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete journey: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrJourneyNotFound
	}

	return nil
}
