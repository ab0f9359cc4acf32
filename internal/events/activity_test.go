package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeEventCoversAllTypes(t *testing.T) {
	now := time.Now()
	for _, eventType := range AllEventTypes() {
		_, ok := DescribeEvent(Event{Type: eventType, Timestamp: now}, now)
		assert.True(t, ok, "no activity description for %q", eventType)
	}
}

func TestDescribeEventUnknownType(t *testing.T) {
	_, ok := DescribeEvent(Event{Type: EventType("made_up")}, time.Now())
	assert.False(t, ok)
}

func TestDescribeEventFormatting(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := now.Add(-30 * time.Second)

	tests := []struct {
		name         string
		event        Event
		expectAction string
		expectType   ActivityType
	}{
		{
			name:         "page view with page",
			event:        Event{Type: EventTypePageView, Page: "/projects"},
			expectAction: "Portfolio page viewed: /projects",
			expectType:   ActivityView,
		},
		{
			name:         "page view defaults to home",
			event:        Event{Type: EventTypePageView},
			expectAction: "Portfolio page viewed: Home",
			expectType:   ActivityView,
		},
		{
			name:         "cv download",
			event:        Event{Type: EventTypeCVDownload},
			expectAction: "CV downloaded",
			expectType:   ActivityDownload,
		},
		{
			name:         "project view",
			event:        Event{Type: EventTypeProjectView, Project: "Fleet Tracker"},
			expectAction: "Fleet Tracker project viewed",
			expectType:   ActivityProject,
		},
		{
			name:         "contact form",
			event:        Event{Type: EventTypeContactFormSubmit},
			expectAction: "Contact form submitted",
			expectType:   ActivityContact,
		},
		{
			name:         "section view",
			event:        Event{Type: EventTypeSectionView, Section: "skills"},
			expectAction: "skills section viewed",
			expectType:   ActivityView,
		},
		{
			name:         "social click",
			event:        Event{Type: EventTypeSocialClick, Platform: "github"},
			expectAction: "Clicked on github link",
			expectType:   ActivitySocial,
		},
		{
			name:         "email click",
			event:        Event{Type: EventTypeEmailClick},
			expectAction: "Email address clicked",
			expectType:   ActivityContact,
		},
		{
			name:         "phone click",
			event:        Event{Type: EventTypePhoneClick},
			expectAction: "Phone number clicked",
			expectType:   ActivityContact,
		},
		{
			name:         "scroll depth reads metadata",
			event:        Event{Type: EventTypeScrollDepth, Metadata: `{"depth":75}`},
			expectAction: "Scrolled 75% of page",
			expectType:   ActivityView,
		},
		{
			name:         "time on page rounds minutes",
			event:        Event{Type: EventTypeTimeOnPage, Metadata: `{"timeInSeconds":150}`},
			expectAction: "Spent 3 minutes on page",
			expectType:   ActivityView,
		},
		{
			name:         "bounce",
			event:        Event{Type: EventTypeBounce},
			expectAction: "Visitor bounced (left quickly)",
			expectType:   ActivityView,
		},
		{
			name:         "return visitor",
			event:        Event{Type: EventTypeReturnVisitor},
			expectAction: "Return visitor detected",
			expectType:   ActivityView,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.event.Timestamp = at
			entry, ok := DescribeEvent(test.event, now)
			require.True(t, ok)
			assert.Equal(t, test.expectAction, entry.Action)
			assert.Equal(t, test.expectType, entry.Type)
			assert.Equal(t, "30 seconds ago", entry.Time)
		})
	}
}

func TestRecentActivityFromEvents(t *testing.T) {
	now := time.Now()
	fetched := []Event{
		{ID: 1, Type: EventTypePageView, Timestamp: now},
		{ID: 2, Type: EventType("bogus"), Timestamp: now}, // skipped
		{ID: 3, Type: EventTypeCVDownload, Timestamp: now},
		{ID: 4, Type: EventTypeEmailClick, Timestamp: now},
	}

	entries := RecentActivityFromEvents(fetched, 2, now)

	require.Len(t, entries, 2)
	assert.Equal(t, uint(1), entries[0].ID)
	assert.Equal(t, uint(3), entries[1].ID)
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		at       time.Time
		expected string
	}{
		{"zero time", time.Time{}, "Unknown time"},
		{"seconds", now.Add(-45 * time.Second), "45 seconds ago"},
		{"one minute", now.Add(-1 * time.Minute), "1 minute ago"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"one hour", now.Add(-1 * time.Hour), "1 hour ago"},
		{"hours", now.Add(-7 * time.Hour), "7 hours ago"},
		{"one day", now.Add(-24 * time.Hour), "1 day ago"},
		{"days", now.Add(-72 * time.Hour), "3 days ago"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, FormatTimeAgo(test.at, now))
		})
	}
}
