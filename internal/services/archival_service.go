package services

import (
	"fmt"
	"time"

	"github.com/routewise/bus-booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// ArchiveStore is the persistence surface of the archival sweep.
type ArchiveStore interface {
	ListLiveJourneys() ([]models.Journey, error)
	ArchiveJourney(journey *models.Journey) error
}

// ArchivalService moves past-due journeys out of the live catalog. Each
// journey is archived in its own fail-closed transaction, so a failure
// leaves that journey live for the next scheduled run.
type ArchivalService struct {
	store    ArchiveStore
	location *time.Location
	logger   *logrus.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewArchivalService creates a new ArchivalService. The location is the
// single canonical zone used to interpret journey date/time fields.
func NewArchivalService(store ArchiveStore, location *time.Location, logger *logrus.Logger) *ArchivalService {
	return &ArchivalService{
		store:    store,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// SweepExpired archives every live journey whose departure instant has
// passed. Journeys with unparseable date/time fields are reported and
// skipped, never deleted. Running the sweep twice with no intervening
// state change is a no-op: the archive insert is keyed on the original
// journey id.
func (s *ArchivalService) SweepExpired() (*models.SweepResult, error) {
	journeys, err := s.store.ListLiveJourneys()
	if err != nil {
		return nil, fmt.Errorf("failed to list live journeys: %w", err)
	}

	result := &models.SweepResult{Scanned: len(journeys)}
	now := s.now()

	for i := range journeys {
		journey := &journeys[i]

		departure, err := journey.DepartureInstant(s.location)
		if err != nil {
			result.Skipped++
			s.logger.WithFields(logrus.Fields{
				"journey_id": journey.ID,
				"date":       journey.Date,
				"time":       journey.Time,
			}).Warn("Journey has unparseable date/time, skipping")
			continue
		}

		if !departure.Before(now) {
			continue
		}

		if err := s.store.ArchiveJourney(journey); err != nil {
			result.Failed++
			s.logger.WithError(err).WithField("journey_id", journey.ID).
				Error("Failed to archive journey, will retry next sweep")
			continue
		}

		result.Archived++
		s.logger.WithFields(logrus.Fields{
			"journey_id": journey.ID,
			"source":     journey.Source,
			"destination": journey.Destination,
			"departure":  departure,
		}).Info("Journey archived")
	}

	s.logger.WithFields(logrus.Fields{
		"scanned":  result.Scanned,
		"archived": result.Archived,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Archival sweep completed")

	return result, nil
}
