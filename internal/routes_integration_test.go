package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

func TestPublicEventsRouteRateLimited(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var eventRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodPost && route.Path == "/x/api/v1/events" {
			eventRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, eventRoute, "expected events route to be registered")

	// The rate limiter only applies in production; the conditional wrapper
	// defined in MountAppRoutes is still part of the handler chain here.
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range eventRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutes.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for public events route, handlers: %v", handlerNames)
}

func TestTrackingAndContactRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	registered := make(map[string]bool)
	for _, route := range routes {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"POST /x/api/v1/events",
		"POST /x/api/v1/events/beacon",
		"POST /contact",
		"GET /login",
		"POST /login",
		"GET /_health",
	} {
		require.Truef(t, registered[want], "expected route %q to be registered", want)
	}
}

func TestAdminRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	registered := make(map[string]bool)
	for _, route := range routes {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /admin",
		"GET /admin/api/dashboard",
		"POST /admin/messages/:id/read",
		"POST /admin/messages/:id/replied",
		"POST /admin/messages/:id/delete",
		"GET /admin/account",
		"POST /admin/account/change-password",
	} {
		require.Truef(t, registered[want], "expected route %q to be registered", want)
	}
}
