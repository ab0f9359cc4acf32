package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"vitrine/internal/events"
	"vitrine/internal/tracker"
)

const (
	msgEventAdded     = "Event added successfully"
	errInvalidRequest = "Invalid request"
)

// TrackEventParams is the wire shape of one visitor signal.
type TrackEventParams struct {
	EventType        events.EventType `json:"eventType"`
	Page             string           `json:"page"`
	Section          string           `json:"section"`
	Project          string           `json:"project"`
	Platform         string           `json:"platform"`
	Depth            int              `json:"depth"`
	TimeInSeconds    int              `json:"timeInSeconds"`
	Referrer         string           `json:"referrer"`
	ScreenResolution string           `json:"screenResolution"`
	Language         string           `json:"language"`
}

// TrackEventPublicAPIHandler ingests one visitor signal. Derived event types
// (bounce, return_visitor, contact_form_submit) are produced server side and
// rejected when a client tries to submit them directly.
func TrackEventPublicAPIHandler(ctx *cartridge.Context) error {
	var params TrackEventParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse tracking request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": errInvalidRequest,
		})
	}

	if !clientSubmittable(params.EventType) {
		ctx.Logger.Debug("Rejected tracking request",
			slog.String("eventType", string(params.EventType)))
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": errInvalidRequest,
		})
	}

	t := tracker.Default()
	if t == nil {
		return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
			"message": msgEventAdded,
			"status":  http.StatusAccepted,
		})
	}

	session := acquireSession(ctx, t)
	dispatch(ctx, t, session, params)

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"status":  http.StatusAccepted,
	})
}

// TrackEventBeaconHandler handles signals sent via navigator.sendBeacon on
// page unload. Beacons are fire-and-forget: the response is always 202 so
// the browser never retries or surfaces errors.
func TrackEventBeaconHandler(ctx *cartridge.Context) error {
	var params TrackEventParams
	if err := json.Unmarshal(ctx.Body(), &params); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}

	if !clientSubmittable(params.EventType) {
		return ctx.SendStatus(http.StatusAccepted)
	}

	t := tracker.Default()
	if t == nil {
		return ctx.SendStatus(http.StatusAccepted)
	}

	session := acquireSession(ctx, t)
	dispatch(ctx, t, session, params)

	return ctx.SendStatus(http.StatusAccepted)
}

// clientSubmittable reports whether a client may submit this event type.
func clientSubmittable(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypePageView,
		events.EventTypeSectionView,
		events.EventTypeProjectView,
		events.EventTypeCVDownload,
		events.EventTypeSocialClick,
		events.EventTypeEmailClick,
		events.EventTypePhoneClick,
		events.EventTypeScrollDepth,
		events.EventTypeTimeOnPage:
		return true
	}
	return false
}

// acquireSession resolves the visitor's tracking session from the session
// cookie, creating one when missing, and refreshes the cookie.
func acquireSession(ctx *cartridge.Context, t *tracker.Tracker) *tracker.Session {
	sid := ctx.Cookies(tracker.SessionCookieName)
	visited := ctx.Cookies(tracker.VisitedCookieName) != ""

	session := t.Registry().Acquire(sid, visited)
	if session.ID != sid {
		ctx.Cookie(&fiber.Cookie{
			Name:     tracker.SessionCookieName,
			Value:    session.ID,
			Path:     "/",
			Secure:   ctx.Config.IsProduction(),
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
	return session
}

// markVisited sets the persistent visited marker so the next session counts
// as a return visit.
func markVisited(ctx *cartridge.Context) {
	ctx.Cookie(&fiber.Cookie{
		Name:     tracker.VisitedCookieName,
		Value:    "1",
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		Secure:   ctx.Config.IsProduction(),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func dispatch(ctx *cartridge.Context, t *tracker.Tracker, session *tracker.Session, params TrackEventParams) {
	client := clientContextFromRequest(ctx, params)

	switch params.EventType {
	case events.EventTypePageView:
		t.PageView(session, client, params.Page)
		markVisited(ctx)
	case events.EventTypeSectionView:
		t.SectionView(session, client, params.Section)
	case events.EventTypeProjectView:
		t.ProjectView(session, client, params.Project)
	case events.EventTypeCVDownload:
		t.CVDownload(session, client)
	case events.EventTypeSocialClick:
		t.SocialClick(session, client, params.Platform)
	case events.EventTypeEmailClick:
		t.EmailClick(session, client)
	case events.EventTypePhoneClick:
		t.PhoneClick(session, client)
	case events.EventTypeScrollDepth:
		t.ObserveScroll(session, client, params.Depth)
	case events.EventTypeTimeOnPage:
		t.PageUnload(session, client, params.Page, params.TimeInSeconds)
	}
}

func clientContextFromRequest(ctx *cartridge.Context, params TrackEventParams) tracker.ClientContext {
	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	referrer := params.Referrer
	if referrer == "" {
		referrer = ctx.Get("Referer")
	}

	return tracker.ClientContext{
		IPAddress:        getClientIP(ctx.Ctx),
		UserAgent:        userAgent,
		Referrer:         referrer,
		ScreenResolution: params.ScreenResolution,
		Language:         params.Language,
	}
}
