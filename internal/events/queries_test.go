package events_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine/internal/events"
	"vitrine/internal/testsupport"
)

func TestRecentEvents(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		testsupport.CreateTestEvent(t, db, events.EventTypePageView,
			fmt.Sprintf("session_%d", i), now.Add(-time.Duration(i)*time.Hour))
	}

	fetched, err := events.RecentEvents(db, 3)
	require.NoError(t, err)
	require.Len(t, fetched, 3)

	// Newest first.
	assert.Equal(t, "session_0", fetched[0].SessionID)
	assert.Equal(t, "session_1", fetched[1].SessionID)
	assert.Equal(t, "session_2", fetched[2].SessionID)
}

func TestCountAndDeleteOldEvents(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -90)

	// Three expired events, two current ones.
	for i := 0; i < 3; i++ {
		event := testsupport.CreateTestEvent(t, db, events.EventTypePageView, "old", now)
		require.NoError(t, db.Model(event).Update("created_at", cutoff.AddDate(0, 0, -1-i)).Error)
	}
	testsupport.CreateTestEvent(t, db, events.EventTypePageView, "fresh", now)
	testsupport.CreateTestEvent(t, db, events.EventTypeCVDownload, "fresh", now)

	expired, err := events.CountEventsOlderThan(db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)

	// Batched deletion: a small limit takes several passes.
	deleted, err := events.DeleteEventsOlderThan(db, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = events.DeleteEventsOlderThan(db, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	total, err := events.CountEvents(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
