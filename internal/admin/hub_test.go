package admin

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vitrine/internal/events"
	"vitrine/internal/livesync"
	"vitrine/internal/messages"
)

func newTestHub(t *testing.T) (*Hub, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:hub_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&messages.Message{}, &events.Event{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(ctestsupport.NewTestDBManager(db), log), db
}

func seedMessage(t *testing.T, db *gorm.DB, name, subject string, createdAt time.Time) messages.Message {
	t.Helper()
	message := messages.Message{
		Name:      name,
		Email:     "sender@example.com",
		Subject:   subject,
		Body:      "A body long enough to pass validation.",
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(&message).Error)
	return message
}

func TestHubSyncStatusBeforeStart(t *testing.T) {
	hub, _ := newTestHub(t)
	assert.Equal(t, livesync.StatusConnecting, hub.SyncStatus())
}

func TestHubInboxReturnsCopy(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.replaceInbox([]messages.Message{{ID: 1, Name: "Maria"}})

	inbox := hub.Inbox()
	require.Len(t, inbox, 1)
	inbox[0].Name = "changed"

	assert.Equal(t, "Maria", hub.Inbox()[0].Name)
}

func TestHubSnapshotFromWindow(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.replaceWindow([]events.Event{
		{Type: events.EventTypePageView},
		{Type: events.EventTypePageView},
		{Type: events.EventTypeBounce},
	})

	snapshot := hub.Snapshot()
	assert.Equal(t, 2, snapshot.PageViews)
	assert.Equal(t, 1, snapshot.Bounces)
	assert.Equal(t, 50, snapshot.BounceRate)
}

func TestHubRecentActivityMergesAndCaps(t *testing.T) {
	hub, _ := newTestHub(t)
	now := time.Now().UTC()

	// Seven messages in the view, but at most five contribute to the feed.
	var inbox []messages.Message
	for i := 0; i < 7; i++ {
		inbox = append(inbox, messages.Message{
			ID:        uint(i + 1),
			Name:      fmt.Sprintf("Sender %d", i),
			Subject:   "Hello",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	hub.replaceInbox(inbox)

	var window []events.Event
	for i := 0; i < 10; i++ {
		window = append(window, events.Event{
			ID:        uint(100 + i),
			Type:      events.EventTypePageView,
			Timestamp: now.Add(-time.Duration(i)*time.Minute - 30*time.Second),
		})
	}
	hub.replaceWindow(window)

	feed := hub.RecentActivity(now)
	require.Len(t, feed, 10)

	// Newest first, message and event entries interleaved by timestamp.
	assert.Equal(t, "New message from Sender 0: Hello", feed[0].Action)
	assert.Equal(t, events.ActivityContact, feed[0].Type)
	assert.Equal(t, "Portfolio page viewed: Home", feed[1].Action)
	assert.Equal(t, "New message from Sender 1: Hello", feed[2].Action)

	messageEntries := 0
	for _, entry := range feed {
		if entry.Type == events.ActivityContact {
			messageEntries++
		}
	}
	assert.Equal(t, 5, messageEntries)
}

func TestHubRecentActivityEmpty(t *testing.T) {
	hub, _ := newTestHub(t)
	assert.Empty(t, hub.RecentActivity(time.Now()))
}

func TestHubMarkReadWritesThrough(t *testing.T) {
	hub, db := newTestHub(t)
	message := seedMessage(t, db, "Maria", "Hello there", time.Now().UTC())
	hub.replaceInbox([]messages.Message{message})

	require.NoError(t, hub.MarkRead(message.ID))

	// Both the database row and the local view reflect the change.
	stored, err := messages.FindByID(db, message.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)
	assert.True(t, hub.Inbox()[0].Read)
}

func TestHubMarkRepliedWritesThrough(t *testing.T) {
	hub, db := newTestHub(t)
	message := seedMessage(t, db, "Maria", "Hello there", time.Now().UTC())
	hub.replaceInbox([]messages.Message{message})

	require.NoError(t, hub.MarkReplied(message.ID))

	stored, err := messages.FindByID(db, message.ID)
	require.NoError(t, err)
	assert.True(t, stored.Replied)
	assert.True(t, hub.Inbox()[0].Replied)
}

func TestHubMarkReadUnknownIDFailsWithoutPatching(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.replaceInbox([]messages.Message{{ID: 1}})

	assert.Error(t, hub.MarkRead(42))
	assert.False(t, hub.Inbox()[0].Read)
}

func TestHubDeleteMessage(t *testing.T) {
	hub, db := newTestHub(t)
	first := seedMessage(t, db, "Maria", "Hello there", time.Now().UTC())
	second := seedMessage(t, db, "Jonas", "Second one", time.Now().UTC())
	hub.replaceInbox([]messages.Message{first, second})

	require.NoError(t, hub.DeleteMessage(first.ID))

	_, err := messages.FindByID(db, first.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	inbox := hub.Inbox()
	require.Len(t, inbox, 1)
	assert.Equal(t, second.ID, inbox[0].ID)
}
