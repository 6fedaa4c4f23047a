package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListLiveJourneys(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewArchiveRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, source, destination`).
			WillReturnRows(journeyRows(uuid.New()))

		journeys, err := repo.ListLiveJourneys()
		require.NoError(t, err)
		require.Len(t, journeys, 1)
		assert.Equal(t, "Mumbai", journeys[0].Source)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Catalog", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, source, destination`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "source", "destination", "date", "time",
				"bus_number", "bus_type", "price_per_seat", "created_at", "updated_at",
			}))

		journeys, err := repo.ListLiveJourneys()
		require.NoError(t, err)
		assert.Empty(t, journeys)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestArchiveJourney(t *testing.T) {
	journey := &models.Journey{
		ID:           uuid.New(),
		Source:       "Mumbai",
		Destination:  "Pune",
		Date:         "2026-08-30",
		Time:         "08:30",
		BusNumber:    "MH-12-AB-1234",
		BusType:      "AC Sleeper",
		PricePerSeat: "499.50",
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT journey_id, seat_index`).
			WithArgs(journey.ID).
			WillReturnRows(sqlmock.NewRows([]string{"journey_id", "seat_index", "available", "booked_by"}).
				AddRow(journey.ID, 0, false, uuid.New()).
				AddRow(journey.ID, 1, true, nil))
		mock.ExpectExec(`INSERT INTO archived_journeys`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM journey_seats`).
			WithArgs(journey.ID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM journeys`).
			WithArgs(journey.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ArchiveJourney(journey)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Archived Still Deletes Live Copy", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT journey_id, seat_index`).
			WithArgs(journey.ID).
			WillReturnRows(sqlmock.NewRows([]string{"journey_id", "seat_index", "available", "booked_by"}))
		// ON CONFLICT DO NOTHING: the archive row already exists.
		mock.ExpectExec(`INSERT INTO archived_journeys`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM journey_seats`).
			WithArgs(journey.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM journeys`).
			WithArgs(journey.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ArchiveJourney(journey)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fails Closed On Snapshot Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT journey_id, seat_index`).
			WithArgs(journey.ID).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		err := repo.ArchiveJourney(journey)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to snapshot seats")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Fails Closed On Delete Error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewArchiveRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT journey_id, seat_index`).
			WithArgs(journey.ID).
			WillReturnRows(sqlmock.NewRows([]string{"journey_id", "seat_index", "available", "booked_by"}))
		mock.ExpectExec(`INSERT INTO archived_journeys`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM journey_seats`).
			WithArgs(journey.ID).
			WillReturnError(fmt.Errorf("deadlock detected"))
		mock.ExpectRollback()

		err := repo.ArchiveJourney(journey)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete seat inventory")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetArchivedJourney(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewArchiveRepository(db)

	t.Run("Success", func(t *testing.T) {
		originalID := uuid.New()

		mock.ExpectQuery(`SELECT original_id`).
			WithArgs(originalID).
			WillReturnRows(sqlmock.NewRows([]string{
				"original_id", "source", "destination", "date", "time",
				"bus_number", "bus_type", "price_per_seat", "seats_snapshot", "archived_at",
			}).AddRow(
				originalID, "Mumbai", "Pune", "2026-08-30", "08:30",
				"MH-12-AB-1234", "AC Sleeper", "499.50", []byte(`[]`), time.Now(),
			))

		archived, err := repo.GetArchivedJourney(originalID)
		require.NoError(t, err)
		require.NotNil(t, archived)
		assert.Equal(t, originalID, archived.OriginalID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil", func(t *testing.T) {
		originalID := uuid.New()

		mock.ExpectQuery(`SELECT original_id`).
			WithArgs(originalID).
			WillReturnRows(sqlmock.NewRows([]string{
				"original_id", "source", "destination", "date", "time",
				"bus_number", "bus_type", "price_per_seat", "seats_snapshot", "archived_at",
			}))

		archived, err := repo.GetArchivedJourney(originalID)
		require.NoError(t, err)
		assert.Nil(t, archived)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
