package events

import (
	"time"

	"gorm.io/gorm"
)

// RecentEvents retrieves the most recent events ordered newest-first.
func RecentEvents(db *gorm.DB, limit int) ([]Event, error) {
	var fetched []Event
	err := db.Model(&Event{}).
		Order("timestamp DESC").
		Limit(limit).
		Find(&fetched).Error
	if err != nil {
		return nil, err
	}
	return fetched, nil
}

// CountEvents returns the total number of stored events.
func CountEvents(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Event{}).Count(&count).Error
	return count, err
}

// CountEventsOlderThan counts events created before the cutoff.
func CountEventsOlderThan(db *gorm.DB, cutoff time.Time) (int64, error) {
	var count int64
	err := db.Model(&Event{}).
		Where("created_at < ?", cutoff).
		Count(&count).Error
	return count, err
}

// DeleteEventsOlderThan removes up to limit events created before the
// cutoff and reports how many rows were deleted.
func DeleteEventsOlderThan(db *gorm.DB, cutoff time.Time, limit int) (int64, error) {
	result := db.Where("created_at < ?", cutoff).
		Limit(limit).
		Delete(&Event{})
	return result.RowsAffected, result.Error
}
