package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"

	"vitrine/internal/admin"
	"vitrine/internal/events"
	"vitrine/internal/livesync"
	"vitrine/internal/messages"
)

// DashboardIndexAction renders the admin dashboard from the hub's synced
// state: the analytics snapshot, the message inbox, and the activity feed.
func DashboardIndexAction(ctx *cartridge.Context) error {
	snapshot, inbox, activity, status := dashboardState(ctx)

	return inertia.RenderPage(ctx.Ctx, "Dashboard", inertia.Props{
		"stats":           snapshot,
		"messages":        inbox,
		"unread_count":    countUnread(inbox),
		"recent_activity": activity,
		"sync_status":     string(status),
	})
}

// DashboardDataAction serves the same dashboard state as JSON, used by the
// admin frontend to refresh between page loads.
func DashboardDataAction(ctx *cartridge.Context) error {
	snapshot, inbox, activity, status := dashboardState(ctx)

	return ctx.JSON(fiber.Map{
		"stats":           snapshot,
		"messages":        inbox,
		"unread_count":    countUnread(inbox),
		"recent_activity": activity,
		"sync_status":     string(status),
	})
}

// dashboardState assembles the dashboard payload, preferring the hub's
// synced view and falling back to the database when the sync layer is not
// running (tests, vtctl).
func dashboardState(ctx *cartridge.Context) (events.Snapshot, []messages.Message, []events.ActivityEntry, livesync.Status) {
	var (
		snapshot events.Snapshot
		inbox    []messages.Message
		activity []events.ActivityEntry
		status   livesync.Status
	)

	if hub := admin.Default(); hub != nil {
		snapshot = hub.Snapshot()
		inbox = hub.Inbox()
		activity = hub.RecentActivity(time.Now())
		status = hub.SyncStatus()
	} else {
		snapshot = events.ComputeSnapshot(ctx.DB(), ctx.Logger)
		fetched, err := messages.Recent(ctx.DB(), messages.RecentLimit)
		if err != nil {
			ctx.Logger.Error("Failed to fetch messages", slog.Any("error", err))
		}
		inbox = fetched
		status = livesync.StatusDisconnected
	}

	snapshot.Countries = convertCountryBuckets(snapshot.Countries)
	if activity == nil {
		activity = []events.ActivityEntry{}
	}
	if inbox == nil {
		inbox = []messages.Message{}
	}
	return snapshot, inbox, activity, status
}

func countUnread(inbox []messages.Message) int {
	unread := 0
	for _, message := range inbox {
		if !message.Read {
			unread++
		}
	}
	return unread
}

// convertCountryBuckets maps stored ISO codes to display names.
func convertCountryBuckets(buckets []events.BucketCount) []events.BucketCount {
	if len(buckets) == 0 {
		return []events.BucketCount{}
	}

	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]events.BucketCount, len(buckets))
	for i, bucket := range buckets {
		name := bucket.Name
		if name == events.UnknownCountry {
			name = "Unknown"
		} else if country, err := countries.FindCountryByAlpha(name); err == nil {
			name = country.Name.Common
		} else {
			name = caser.String(name)
		}
		result[i] = events.BucketCount{
			Name:       name,
			Count:      bucket.Count,
			Percentage: bucket.Percentage,
		}
	}
	return result
}

// MessageMarkReadAction flags a message as read.
func MessageMarkReadAction(ctx *cartridge.Context) error {
	return mutateMessage(ctx, "read", func(hub *admin.Hub, id uint) error {
		return hub.MarkRead(id)
	})
}

// MessageMarkRepliedAction flags a message as replied.
func MessageMarkRepliedAction(ctx *cartridge.Context) error {
	return mutateMessage(ctx, "replied", func(hub *admin.Hub, id uint) error {
		return hub.MarkReplied(id)
	})
}

// MessageDeleteAction removes a message permanently.
func MessageDeleteAction(ctx *cartridge.Context) error {
	return mutateMessage(ctx, "delete", func(hub *admin.Hub, id uint) error {
		return hub.DeleteMessage(id)
	})
}

// mutateMessage applies one inbox mutation through the hub so the database
// write and the synced view stay consistent.
func mutateMessage(ctx *cartridge.Context, action string, mutate func(*admin.Hub, uint) error) error {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 32)
	if err != nil {
		flash.SetFlash(ctx.Ctx, "error", "Invalid message")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	hub := admin.Default()
	if hub == nil {
		flash.SetFlash(ctx.Ctx, "error", "Dashboard sync is not running")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	if err := mutate(hub, uint(id)); err != nil {
		ctx.Logger.Error("Failed to update message",
			slog.String("action", action),
			slog.Uint64("id", id),
			slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to update message")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	ctx.Logger.Info("Message updated",
		slog.String("action", action),
		slog.Uint64("id", id))
	return ctx.Redirect("/admin", fiber.StatusFound)
}
