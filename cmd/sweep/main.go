// Command sweep runs one archival sweep and exits. Useful for catching
// up after scheduler downtime and for operating without the in-process
// cron.
package main

import (
	"os"
	"time"

	"github.com/routewise/bus-booking-backend/internal/config"
	"github.com/routewise/bus-booking-backend/internal/database"
	"github.com/routewise/bus-booking-backend/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	location, err := time.LoadLocation(cfg.Archival.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load archival timezone: %v", err)
	}

	archiveRepository := database.NewArchiveRepository(db.DB)
	archivalService := services.NewArchivalService(archiveRepository, location, logger)

	result, err := archivalService.SweepExpired()
	if err != nil {
		logger.Fatalf("Archival sweep failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"scanned":  result.Scanned,
		"archived": result.Archived,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Archival sweep finished")
}
