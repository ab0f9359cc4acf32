package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"vitrine/internal/events"
)

// bounceMaxSeconds and bounceMaxScrollDepth define a bounce: the visitor
// left within 30 seconds without scrolling past a quarter of the page.
const (
	bounceMaxSeconds     = 30
	bounceMaxScrollDepth = 25
)

// SessionCookieName carries the visitor's session id for the current
// browsing session. VisitedCookieName is the long-lived marker that makes
// the visitor count as returning on their next session.
const (
	SessionCookieName = "vitrine_sid"
	VisitedCookieName = "vitrine_visited"
)

// ClientContext carries the request-derived fields attached to every event a
// visit produces.
type ClientContext struct {
	IPAddress        string
	UserAgent        string
	Referrer         string
	ScreenResolution string
	Language         string
}

// Tracker turns raw visitor signals (page loads, scroll positions, clicks,
// unloads) into stored analytics events. Recording is fire-and-forget: a
// failed or suppressed event never surfaces to the visitor-facing request.
type Tracker struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
	registry  *Registry
	enabled   bool
	now       func() time.Time
}

// New creates a tracker. Recording only happens when enabled is true; in
// development and test the tracker accepts every call and stores nothing.
func New(dbManager cartridge.DBManager, logger *slog.Logger, registry *Registry, enabled bool) *Tracker {
	return &Tracker{
		dbManager: dbManager,
		logger:    logger,
		registry:  registry,
		enabled:   enabled,
		now:       time.Now,
	}
}

// Registry exposes the session registry for request handling.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Enabled reports whether events are actually persisted.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// PageView records a page_view and, when the visitor carries the persistent
// visited marker, a return_visitor. The return_visitor fires at most once
// per session regardless of how many pages the visit touches.
func (t *Tracker) PageView(session *Session, client ClientContext, page string) {
	t.record(session, client, &events.CollectEventInput{
		Type: events.EventTypePageView,
		Page: page,
	})

	if session.ShouldFireReturnVisitor() {
		t.record(session, client, &events.CollectEventInput{
			Type: events.EventTypeReturnVisitor,
		})
	}
}

// SectionView records that a named page section became visible.
func (t *Tracker) SectionView(session *Session, client ClientContext, section string) {
	t.record(session, client, &events.CollectEventInput{
		Type:    events.EventTypeSectionView,
		Section: section,
	})
}

// ProjectView records a click-through into a portfolio project.
func (t *Tracker) ProjectView(session *Session, client ClientContext, project string) {
	t.record(session, client, &events.CollectEventInput{
		Type:    events.EventTypeProjectView,
		Project: project,
	})
}

// CVDownload records a CV download.
func (t *Tracker) CVDownload(session *Session, client ClientContext) {
	t.record(session, client, &events.CollectEventInput{
		Type: events.EventTypeCVDownload,
	})
}

// ContactSubmit records a successful contact form submission.
func (t *Tracker) ContactSubmit(session *Session, client ClientContext) {
	t.record(session, client, &events.CollectEventInput{
		Type: events.EventTypeContactFormSubmit,
	})
}

// SocialClick records a click on an outbound social link.
func (t *Tracker) SocialClick(session *Session, client ClientContext, platform string) {
	t.record(session, client, &events.CollectEventInput{
		Type:     events.EventTypeSocialClick,
		Platform: platform,
	})
}

// EmailClick records a click on the email address.
func (t *Tracker) EmailClick(session *Session, client ClientContext) {
	t.record(session, client, &events.CollectEventInput{
		Type: events.EventTypeEmailClick,
	})
}

// PhoneClick records a click on the phone number.
func (t *Tracker) PhoneClick(session *Session, client ClientContext) {
	t.record(session, client, &events.CollectEventInput{
		Type: events.EventTypePhoneClick,
	})
}

// ObserveScroll records a scroll position and emits a scroll_depth event for
// each milestone band crossed for the first time this session.
func (t *Tracker) ObserveScroll(session *Session, client ClientContext, depth int) {
	for _, milestone := range session.MilestonesToFire(depth) {
		t.record(session, client, &events.CollectEventInput{
			Type:     events.EventTypeScrollDepth,
			Metadata: map[string]any{"depth": milestone},
		})
	}
}

// PageUnload records a time_on_page event with the visit duration, and a
// bounce when the visitor left quickly without meaningful scrolling.
func (t *Tracker) PageUnload(session *Session, client ClientContext, page string, elapsedSeconds int) {
	t.record(session, client, &events.CollectEventInput{
		Type:     events.EventTypeTimeOnPage,
		Page:     page,
		Metadata: map[string]any{"timeInSeconds": elapsedSeconds},
	})

	if elapsedSeconds < bounceMaxSeconds && session.MaxScrollDepth() < bounceMaxScrollDepth {
		t.record(session, client, &events.CollectEventInput{
			Type: events.EventTypeBounce,
			Page: page,
			Metadata: map[string]any{
				"timeInSeconds": elapsedSeconds,
				"maxScroll":     session.MaxScrollDepth(),
			},
		})
	}
}

var (
	defaultTracker *Tracker
	defaultMu      sync.RWMutex
)

// SetDefault installs the process-wide tracker used by the HTTP handlers.
func SetDefault(t *Tracker) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTracker = t
}

// Default returns the process-wide tracker, or nil before SetDefault.
func Default() *Tracker {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultTracker
}

// record persists one event. It deliberately returns nothing: tracking must
// never break the page it observes, so failures are logged and swallowed.
func (t *Tracker) record(session *Session, client ClientContext, input *events.CollectEventInput) {
	if !t.enabled {
		return
	}

	input.SessionID = session.ID
	input.IPAddress = client.IPAddress
	input.UserAgent = client.UserAgent
	input.Referrer = client.Referrer
	input.ScreenResolution = client.ScreenResolution
	input.Language = client.Language
	input.Timestamp = t.now().UTC()

	if err := events.CollectEvent(t.dbManager, t.logger, input); err != nil {
		t.logger.Warn("Dropped analytics event",
			slog.String("type", string(input.Type)),
			slog.Any("error", err))
	}
}
