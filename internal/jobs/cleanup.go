package jobs

import (
	"log/slog"
	"time"

	"vitrine/internal/config"
	"vitrine/internal/database"
	"vitrine/internal/events"
)

// CleanupJob removes analytics events past the retention period.
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run deletes events older than the retention window. Old events never
// contribute to dashboard metrics, so keeping them only grows the database.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.EventsRetentionDays
	db := j.dbManager.GetConnection()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	countToDelete, err := events.CountEventsOlderThan(db, cutoffDate)
	if err != nil {
		j.logger.Error("Failed to count old events", slog.Any("error", err))
		return err
	}

	if countToDelete == 0 {
		j.logger.Debug("No old events to clean up")
		return nil
	}

	j.logger.Info("Starting cleanup of old events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate),
		slog.Int64("count", countToDelete))

	// Delete in batches to avoid locking the database for too long
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		deleted, err := events.DeleteEventsOlderThan(db, cutoffDate, batchSize)
		if err != nil {
			j.logger.Error("Failed to delete old events",
				slog.Any("error", err),
				slog.Int64("deleted_so_far", totalDeleted))
			return err
		}

		totalDeleted += deleted

		if deleted < int64(batchSize) {
			break
		}

		// Small delay between batches to prevent database lock contention
		time.Sleep(100 * time.Millisecond)
	}

	j.logger.Info("Cleaned up old events",
		slog.Int64("deleted_count", totalDeleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
