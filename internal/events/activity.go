package events

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ActivityType groups activity feed entries for the admin dashboard.
type ActivityType string

const (
	ActivityContact  ActivityType = "contact"
	ActivityDownload ActivityType = "download"
	ActivityProject  ActivityType = "project"
	ActivityView     ActivityType = "view"
	ActivitySocial   ActivityType = "social"
)

// ActivityEntry is one human-readable line in the recent-activity feed.
type ActivityEntry struct {
	ID     uint         `json:"id"`
	Action string       `json:"action"`
	Time   string       `json:"time"`
	Type   ActivityType `json:"type"`
}

type activityFormatter func(Event) (string, ActivityType)

// activityFormatters is a total mapping over the EventType enumeration.
// A type without an entry here is a bug: DescribeEvent reports it instead of
// falling through to a default, and the package tests assert coverage of
// AllEventTypes.
var activityFormatters = map[EventType]activityFormatter{
	EventTypePageView: func(e Event) (string, ActivityType) {
		page := e.Page
		if page == "" {
			page = "Home"
		}
		return fmt.Sprintf("Portfolio page viewed: %s", page), ActivityView
	},
	EventTypeCVDownload: func(Event) (string, ActivityType) {
		return "CV downloaded", ActivityDownload
	},
	EventTypeProjectView: func(e Event) (string, ActivityType) {
		return fmt.Sprintf("%s project viewed", e.Project), ActivityProject
	},
	EventTypeContactFormSubmit: func(Event) (string, ActivityType) {
		return "Contact form submitted", ActivityContact
	},
	EventTypeSectionView: func(e Event) (string, ActivityType) {
		return fmt.Sprintf("%s section viewed", e.Section), ActivityView
	},
	EventTypeSocialClick: func(e Event) (string, ActivityType) {
		return fmt.Sprintf("Clicked on %s link", e.Platform), ActivitySocial
	},
	EventTypeEmailClick: func(Event) (string, ActivityType) {
		return "Email address clicked", ActivityContact
	},
	EventTypePhoneClick: func(Event) (string, ActivityType) {
		return "Phone number clicked", ActivityContact
	},
	EventTypeScrollDepth: func(e Event) (string, ActivityType) {
		return fmt.Sprintf("Scrolled %d%% of page", metadataInt(e.Metadata, "depth")), ActivityView
	},
	EventTypeTimeOnPage: func(e Event) (string, ActivityType) {
		minutes := int(math.Round(float64(metadataInt(e.Metadata, "timeInSeconds")) / 60))
		return fmt.Sprintf("Spent %d minutes on page", minutes), ActivityView
	},
	EventTypeBounce: func(Event) (string, ActivityType) {
		return "Visitor bounced (left quickly)", ActivityView
	},
	EventTypeReturnVisitor: func(Event) (string, ActivityType) {
		return "Return visitor detected", ActivityView
	},
}

// DescribeEvent formats one event for the activity feed. The boolean is
// false for an event type outside the enumeration.
func DescribeEvent(event Event, now time.Time) (ActivityEntry, bool) {
	format, ok := activityFormatters[event.Type]
	if !ok {
		return ActivityEntry{}, false
	}

	action, activityType := format(event)
	return ActivityEntry{
		ID:     event.ID,
		Action: action,
		Time:   FormatTimeAgo(event.Timestamp, now),
		Type:   activityType,
	}, true
}

// RecentActivityFromEvents maps the newest events (the slice is expected
// newest-first) into at most limit activity entries.
func RecentActivityFromEvents(fetched []Event, limit int, now time.Time) []ActivityEntry {
	entries := make([]ActivityEntry, 0, limit)
	for _, event := range fetched {
		if len(entries) == limit {
			break
		}
		if entry, ok := DescribeEvent(event, now); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// FormatTimeAgo renders a timestamp as a coarse relative duration.
func FormatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown time"
	}

	seconds := int(now.Sub(t).Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds ago", seconds)
	case seconds < 3600:
		return pluralAgo(seconds/60, "minute")
	case seconds < 86400:
		return pluralAgo(seconds/3600, "hour")
	default:
		return pluralAgo(seconds/86400, "day")
	}
}

func pluralAgo(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}

// metadataInt pulls a numeric field out of an event's metadata JSON.
func metadataInt(metadata, key string) int {
	if metadata == "" {
		return 0
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(metadata), &parsed); err != nil {
		return 0
	}
	if value, ok := parsed[key].(float64); ok {
		return int(value)
	}
	return 0
}
