// Package admin maintains the live dashboard state: the current message
// inbox and the analytics event window, kept in sync with the database by
// background subscriptions.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"vitrine/internal/config"
	"vitrine/internal/events"
	"vitrine/internal/livesync"
	"vitrine/internal/messages"
)

// activityFeedLimit caps the combined recent-activity feed; up to
// messageActivityLimit of those come from contact messages.
const (
	activityFeedLimit    = 10
	messageActivityLimit = 5
)

// Hub owns the dashboard's synced state. Reads are served from memory;
// mutations write through to the database first and patch the in-memory
// view so the dashboard reflects them before the next sync cycle.
type Hub struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger

	messageSub *livesync.Subscription[messages.Message]
	eventSub   *livesync.Subscription[events.Event]

	mu      sync.RWMutex
	inbox   []messages.Message
	window  []events.Event
	started bool
}

// NewHub creates a hub; nothing syncs until Start.
func NewHub(dbManager cartridge.DBManager, logger *slog.Logger) *Hub {
	return &Hub{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Start launches both subscriptions.
// Implements cartridge.BackgroundWorker interface.
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	cfg := config.GetConfig()
	pollInterval := time.Duration(cfg.FeedPollSeconds) * time.Second
	retryDelay := time.Duration(cfg.FeedRetrySeconds) * time.Second

	h.messageSub = livesync.NewSubscription(
		"messages",
		func(ctx context.Context) ([]messages.Message, error) {
			fetched, err := messages.Recent(h.dbManager.GetConnection(), messages.RecentLimit)
			return fetched, classifyFetchError(err)
		},
		h.replaceInbox,
		pollInterval, retryDelay, h.logger,
	)

	h.eventSub = livesync.NewSubscription(
		"events",
		func(ctx context.Context) ([]events.Event, error) {
			fetched, err := events.RecentEvents(h.dbManager.GetConnection(), events.SnapshotWindow)
			return fetched, classifyFetchError(err)
		},
		h.replaceWindow,
		pollInterval, retryDelay, h.logger,
	)

	h.messageSub.Start()
	h.eventSub.Start()
	h.logger.Info("Dashboard sync started",
		slog.Duration("poll_interval", pollInterval))
	return nil
}

// Stop closes both subscriptions.
// Implements cartridge.BackgroundWorker interface.
func (h *Hub) Stop() {
	if h.messageSub != nil {
		h.messageSub.Close()
	}
	if h.eventSub != nil {
		h.eventSub.Close()
	}
	h.logger.Info("Dashboard sync stopped")
}

// classifyFetchError maps driver errors onto the sync sentinels.
func classifyFetchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(livesync.ErrTimeout, err)
	}
	return err
}

func (h *Hub) replaceInbox(fetched []messages.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbox = fetched
}

func (h *Hub) replaceWindow(fetched []events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = fetched
}

// SyncStatus reports the combined connection state: disconnected if either
// feed is down, connecting if either is still catching up.
func (h *Hub) SyncStatus() livesync.Status {
	if h.messageSub == nil || h.eventSub == nil {
		return livesync.StatusConnecting
	}
	statuses := []livesync.Status{h.messageSub.Status(), h.eventSub.Status()}
	combined := livesync.StatusConnected
	for _, status := range statuses {
		if status == livesync.StatusDisconnected {
			return livesync.StatusDisconnected
		}
		if status == livesync.StatusConnecting {
			combined = livesync.StatusConnecting
		}
	}
	return combined
}

// Inbox returns a copy of the current message view, newest first.
func (h *Hub) Inbox() []messages.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]messages.Message, len(h.inbox))
	copy(out, h.inbox)
	return out
}

// Snapshot aggregates the synced event window.
func (h *Hub) Snapshot() events.Snapshot {
	h.mu.RLock()
	window := h.window
	h.mu.RUnlock()
	return events.SnapshotFromEvents(window)
}

// RecentActivity merges the newest contact messages with the newest
// analytics events into a single feed, newest first.
func (h *Hub) RecentActivity(now time.Time) []events.ActivityEntry {
	h.mu.RLock()
	inbox := h.inbox
	window := h.window
	h.mu.RUnlock()

	type timedEntry struct {
		entry events.ActivityEntry
		at    time.Time
	}
	combined := make([]timedEntry, 0, activityFeedLimit*2)

	for i, message := range inbox {
		if i == messageActivityLimit {
			break
		}
		combined = append(combined, timedEntry{
			entry: events.ActivityEntry{
				ID:     message.ID,
				Action: "New message from " + message.Name + ": " + message.Subject,
				Time:   events.FormatTimeAgo(message.CreatedAt, now),
				Type:   events.ActivityContact,
			},
			at: message.CreatedAt,
		})
	}

	for _, event := range window {
		if len(combined) >= activityFeedLimit*2 {
			break
		}
		if entry, ok := events.DescribeEvent(event, now); ok {
			combined = append(combined, timedEntry{entry: entry, at: event.Timestamp})
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].at.After(combined[j].at)
	})

	limit := activityFeedLimit
	if len(combined) < limit {
		limit = len(combined)
	}
	feed := make([]events.ActivityEntry, 0, limit)
	for _, item := range combined[:limit] {
		feed = append(feed, item.entry)
	}
	return feed
}

// MarkRead flags a message as read in the database and patches the local
// view so the change shows up before the next sync cycle.
func (h *Hub) MarkRead(id uint) error {
	if err := messages.MarkRead(h.logger, h.dbManager.GetConnection(), id); err != nil {
		return err
	}
	h.patchInbox(id, func(m *messages.Message) { m.Read = true })
	return nil
}

// MarkReplied flags a message as replied, write-through like MarkRead.
func (h *Hub) MarkReplied(id uint) error {
	if err := messages.MarkReplied(h.logger, h.dbManager.GetConnection(), id); err != nil {
		return err
	}
	h.patchInbox(id, func(m *messages.Message) { m.Replied = true })
	return nil
}

// DeleteMessage removes a message from the database and the local view.
func (h *Hub) DeleteMessage(id uint) error {
	if err := messages.Delete(h.logger, h.dbManager.GetConnection(), id); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, message := range h.inbox {
		if message.ID == id {
			h.inbox = append(h.inbox[:i], h.inbox[i+1:]...)
			break
		}
	}
	return nil
}

func (h *Hub) patchInbox(id uint, patch func(*messages.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.inbox {
		if h.inbox[i].ID == id {
			patch(&h.inbox[i])
			return
		}
	}
}

var (
	defaultHub *Hub
	defaultMu  sync.RWMutex
)

// SetDefault installs the process-wide hub used by the HTTP handlers.
func SetDefault(h *Hub) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHub = h
}

// Default returns the process-wide hub, or nil before SetDefault.
func Default() *Hub {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultHub
}
