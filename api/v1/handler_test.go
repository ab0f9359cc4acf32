// Package v1_test contains tests for the API v1 handlers
package v1_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine/internal/events"
	"vitrine/internal/testsupport"
	"vitrine/internal/tracker"
)

func setupTrackingApp(t *testing.T) (*testsupport.TestDBManager, *fiber.App) {
	t.Helper()

	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)
	dbManager := testsupport.NewTestDBManager(db)

	registry := tracker.NewRegistry(tracker.DefaultSessionTTL)
	tracker.SetDefault(tracker.New(dbManager, testsupport.GetLogger(), registry, true))
	t.Cleanup(func() { tracker.SetDefault(nil) })

	app := testsupport.CreateMinimalTestApp(t, db)
	return dbManager, app
}

func trackRequest(t *testing.T, payload map[string]interface{}) *http.Request {
	t.Helper()

	jsonPayload, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/x/api/v1/events", bytes.NewReader(jsonPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/126.0")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	return req
}

func countEvents(t *testing.T, dbManager *testsupport.TestDBManager) int64 {
	t.Helper()
	var count int64
	require.NoError(t, dbManager.GetConnection().Model(&events.Event{}).Count(&count).Error)
	return count
}

func TestTrackEventPublicAPIHandler(t *testing.T) {
	t.Run("accepts a page view and stores it", func(t *testing.T) {
		dbManager, app := setupTrackingApp(t)

		resp, err := app.Test(trackRequest(t, map[string]interface{}{
			"eventType":        events.EventTypePageView,
			"page":             "/projects",
			"screenResolution": "1920x1080",
			"language":         "en-US",
		}), 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var respBody map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &respBody))
		assert.Equal(t, "Event added successfully", respBody["message"])
		assert.Equal(t, float64(http.StatusAccepted), respBody["status"])

		assert.Equal(t, int64(1), countEvents(t, dbManager))

		var sessionCookie, visitedCookie bool
		for _, cookie := range resp.Cookies() {
			switch cookie.Name {
			case tracker.SessionCookieName:
				sessionCookie = true
			case tracker.VisitedCookieName:
				visitedCookie = true
			}
		}
		assert.True(t, sessionCookie, "a fresh visit gets a session cookie")
		assert.True(t, visitedCookie, "a page view sets the visited marker")
	})

	t.Run("rejects derived event types", func(t *testing.T) {
		dbManager, app := setupTrackingApp(t)

		for _, derived := range []events.EventType{
			events.EventTypeBounce,
			events.EventTypeReturnVisitor,
			events.EventTypeContactFormSubmit,
		} {
			resp, err := app.Test(trackRequest(t, map[string]interface{}{
				"eventType": derived,
			}), 30000)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode,
				"type %s must not be client submittable", derived)
		}

		assert.Equal(t, int64(0), countEvents(t, dbManager))
	})

	t.Run("rejects unknown event type", func(t *testing.T) {
		_, app := setupTrackingApp(t)

		resp, err := app.Test(trackRequest(t, map[string]interface{}{
			"eventType": "made_up",
		}), 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		_, app := setupTrackingApp(t)

		req := httptest.NewRequest("POST", "/x/api/v1/events", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("reuses the session from the cookie", func(t *testing.T) {
		dbManager, app := setupTrackingApp(t)

		first, err := app.Test(trackRequest(t, map[string]interface{}{
			"eventType": events.EventTypePageView,
		}), 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusAccepted, first.StatusCode)

		var sid string
		for _, cookie := range first.Cookies() {
			if cookie.Name == tracker.SessionCookieName {
				sid = cookie.Value
			}
		}
		require.NotEmpty(t, sid)

		req := trackRequest(t, map[string]interface{}{
			"eventType": events.EventTypeProjectView,
			"project":   "Fleet Tracker",
		})
		req.AddCookie(&http.Cookie{Name: tracker.SessionCookieName, Value: sid})
		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var stored []events.Event
		require.NoError(t, dbManager.GetConnection().Order("id asc").Find(&stored).Error)
		require.Len(t, stored, 2)
		assert.Equal(t, stored[0].SessionID, stored[1].SessionID)
	})
}

func TestTrackEventBeaconHandler(t *testing.T) {
	t.Run("stores time_on_page", func(t *testing.T) {
		dbManager, app := setupTrackingApp(t)

		payload, err := json.Marshal(map[string]interface{}{
			"eventType":     events.EventTypeTimeOnPage,
			"page":          "/",
			"timeInSeconds": 95,
		})
		require.NoError(t, err)

		// sendBeacon posts without a JSON content type.
		req := httptest.NewRequest("POST", "/x/api/v1/events/beacon", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")

		resp, err := app.Test(req, 30000)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Equal(t, int64(1), countEvents(t, dbManager))
	})

	t.Run("always answers 202", func(t *testing.T) {
		dbManager, app := setupTrackingApp(t)

		for _, body := range []string{"{broken", `{"eventType":"bounce"}`, ""} {
			req := httptest.NewRequest("POST", "/x/api/v1/events/beacon", bytes.NewReader([]byte(body)))
			resp, err := app.Test(req, 30000)
			require.NoError(t, err)
			assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		}
		assert.Equal(t, int64(0), countEvents(t, dbManager))
	})
}
