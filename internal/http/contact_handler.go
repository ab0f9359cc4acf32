package http

import (
	"net/http"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"vitrine/internal/messages"
	"vitrine/internal/tracker"
)

// ContactFormParams is the contact form payload. Website is the honeypot
// field: hidden from humans, so any value identifies a bot.
type ContactFormParams struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
	Website string `json:"website" form:"website"`
}

// ContactCreateAction handles a contact form submission. Bot submissions
// get the same success response as real ones so the honeypot stays
// invisible; validation failures return every failing field at once.
func ContactCreateAction(ctx *cartridge.Context) error {
	var params ContactFormParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse contact form", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request",
		})
	}

	input := messages.Input{
		Name:    params.Name,
		Email:   params.Email,
		Subject: params.Subject,
		Body:    params.Message,
		Website: params.Website,
	}

	if messages.IsBot(input) {
		ctx.Logger.Info("Dropped contact submission from honeypot")
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "Message sent successfully",
		})
	}

	message, fieldErrors, err := messages.Create(ctx.Logger, ctx.DB(), input)
	if fieldErrors != nil {
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fieldErrors,
		})
	}
	if err != nil {
		ctx.Logger.Error("Failed to store contact message", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong. Please try again later.",
		})
	}

	trackContactSubmit(ctx)

	ctx.Logger.Info("Contact message received",
		slog.Uint64("id", uint64(message.ID)),
		slog.String("subject", message.Subject))

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Message sent successfully",
	})
}

// trackContactSubmit records the contact_form_submit analytics event. This
// is the only place the event type is produced; the public tracking API
// rejects it.
func trackContactSubmit(ctx *cartridge.Context) {
	t := tracker.Default()
	if t == nil {
		return
	}

	sid := ctx.Cookies(tracker.SessionCookieName)
	visited := ctx.Cookies(tracker.VisitedCookieName) != ""
	session := t.Registry().Acquire(sid, visited)

	t.ContactSubmit(session, tracker.ClientContext{
		IPAddress: ctx.IP(),
		UserAgent: ctx.Get("User-Agent"),
		Referrer:  ctx.Get("Referer"),
	})
}
