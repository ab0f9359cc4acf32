package events

import "time"

// EventType identifies a tracked visitor interaction.
type EventType string

// The closed set of tracked interactions.
const (
	EventTypePageView          EventType = "page_view"
	EventTypeCVDownload        EventType = "cv_download"
	EventTypeProjectView       EventType = "project_view"
	EventTypeContactFormSubmit EventType = "contact_form_submit"
	EventTypeSectionView       EventType = "section_view"
	EventTypeSocialClick       EventType = "social_click"
	EventTypeEmailClick        EventType = "email_click"
	EventTypePhoneClick        EventType = "phone_click"
	EventTypeScrollDepth       EventType = "scroll_depth"
	EventTypeTimeOnPage        EventType = "time_on_page"
	EventTypeBounce            EventType = "bounce"
	EventTypeReturnVisitor     EventType = "return_visitor"
)

// AllEventTypes returns every member of the EventType enumeration.
// Tests use it to assert total coverage of type-keyed tables.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypePageView,
		EventTypeCVDownload,
		EventTypeProjectView,
		EventTypeContactFormSubmit,
		EventTypeSectionView,
		EventTypeSocialClick,
		EventTypeEmailClick,
		EventTypePhoneClick,
		EventTypeScrollDepth,
		EventTypeTimeOnPage,
		EventTypeBounce,
		EventTypeReturnVisitor,
	}
}

// Valid reports whether t is a member of the enumeration.
func (t EventType) Valid() bool {
	_, ok := activityFormatters[t]
	return ok
}

// Event represents one immutable tracked interaction.
// Events are appended on interaction and never mutated; retention is
// enforced by the cleanup job, not by callers.
type Event struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"`
	Type             EventType `gorm:"index;not null"`
	Page             string
	Section          string
	Project          string
	Platform         string
	SessionID        string `gorm:"index;size:64"`
	UserAgent        string
	Referrer         string
	Browser          string
	OperatingSystem  string
	ScreenResolution string
	Language         string
	Country          string
	Metadata         string    `gorm:"type:text"`
	Timestamp        time.Time `gorm:"index;not null"`
	ClientCreatedAt  string
	CreatedAt        time.Time
}
