package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArchiveStore keeps the live catalog in memory and records what
// the sweep archives.
type fakeArchiveStore struct {
	journeys   []models.Journey
	archived   map[uuid.UUID]bool
	failFor    map[uuid.UUID]error
	listErr    error
	archiveLog []uuid.UUID
}

func newFakeArchiveStore(journeys ...models.Journey) *fakeArchiveStore {
	return &fakeArchiveStore{
		journeys: journeys,
		archived: make(map[uuid.UUID]bool),
		failFor:  make(map[uuid.UUID]error),
	}
}

func (f *fakeArchiveStore) ListLiveJourneys() ([]models.Journey, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	live := []models.Journey{}
	for _, j := range f.journeys {
		if !f.archived[j.ID] {
			live = append(live, j)
		}
	}
	return live, nil
}

func (f *fakeArchiveStore) ArchiveJourney(journey *models.Journey) error {
	if err := f.failFor[journey.ID]; err != nil {
		return err
	}
	f.archived[journey.ID] = true
	f.archiveLog = append(f.archiveLog, journey.ID)
	return nil
}

func journeyAt(date, timeOfDay string) models.Journey {
	return models.Journey{
		ID:           uuid.New(),
		Source:       "Mumbai",
		Destination:  "Pune",
		Date:         date,
		Time:         timeOfDay,
		BusNumber:    "MH-12-AB-1234",
		PricePerSeat: "499.50",
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSweepExpired(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// Sweep runs at noon on 2026-09-01.
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, loc)

	t.Run("Archives Only Past Departures", func(t *testing.T) {
		past := journeyAt("2026-08-31", "18:00")
		earlierToday := journeyAt("2026-09-01", "08:30")
		laterToday := journeyAt("2026-09-01", "18:00")
		future := journeyAt("2026-09-02", "08:30")

		store := newFakeArchiveStore(past, earlierToday, laterToday, future)
		svc := NewArchivalService(store, loc, testLogger())
		svc.now = fixedClock(now)

		result, err := svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 4, result.Scanned)
		assert.Equal(t, 2, result.Archived)
		assert.Equal(t, 0, result.Skipped)
		assert.Equal(t, 0, result.Failed)

		assert.True(t, store.archived[past.ID])
		assert.True(t, store.archived[earlierToday.ID])
		assert.False(t, store.archived[laterToday.ID])
		assert.False(t, store.archived[future.ID])
	})

	t.Run("Departure Exactly Now Stays Live", func(t *testing.T) {
		boundary := journeyAt("2026-09-01", "12:00")

		store := newFakeArchiveStore(boundary)
		svc := NewArchivalService(store, loc, testLogger())
		svc.now = fixedClock(now)

		result, err := svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 0, result.Archived)
		assert.False(t, store.archived[boundary.ID])
	})

	t.Run("Unparseable Schedule Is Skipped Not Deleted", func(t *testing.T) {
		broken := journeyAt("not-a-date", "18:00")
		past := journeyAt("2026-08-31", "18:00")

		store := newFakeArchiveStore(broken, past)
		svc := NewArchivalService(store, loc, testLogger())
		svc.now = fixedClock(now)

		result, err := svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, 1, result.Archived)
		assert.False(t, store.archived[broken.ID])
	})

	t.Run("Archive Failure Leaves Journey For Next Sweep", func(t *testing.T) {
		failing := journeyAt("2026-08-31", "18:00")
		healthy := journeyAt("2026-08-31", "19:00")

		store := newFakeArchiveStore(failing, healthy)
		store.failFor[failing.ID] = fmt.Errorf("connection reset")
		svc := NewArchivalService(store, loc, testLogger())
		svc.now = fixedClock(now)

		result, err := svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Archived)
		assert.True(t, store.archived[healthy.ID])

		// The failed journey is picked up once the store recovers.
		delete(store.failFor, failing.ID)
		result, err = svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 1, result.Archived)
		assert.True(t, store.archived[failing.ID])
	})

	t.Run("Repeat Sweep Is A No-Op", func(t *testing.T) {
		past := journeyAt("2026-08-31", "18:00")

		store := newFakeArchiveStore(past)
		svc := NewArchivalService(store, loc, testLogger())
		svc.now = fixedClock(now)

		_, err := svc.SweepExpired()
		require.NoError(t, err)

		result, err := svc.SweepExpired()
		require.NoError(t, err)
		assert.Equal(t, 0, result.Scanned)
		assert.Equal(t, 0, result.Archived)
		assert.Len(t, store.archiveLog, 1)
	})

	t.Run("List Failure Aborts Sweep", func(t *testing.T) {
		store := newFakeArchiveStore()
		store.listErr = fmt.Errorf("connection refused")
		svc := NewArchivalService(store, loc, testLogger())

		_, err := svc.SweepExpired()
		assert.Error(t, err)
	})
}

func TestDepartureInstantUsesCanonicalZone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	journey := journeyAt("2026-09-01", "08:30")

	instant, err := journey.DepartureInstant(kolkata)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01T08:30:00+05:30", instant.Format(time.RFC3339))
}
