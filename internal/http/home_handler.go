package http

import (
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/inertia"
)

// HomeIndexAction renders the public portfolio page.
func HomeIndexAction(ctx *cartridge.Context) error {
	return inertia.RenderPage(ctx.Ctx, "Home", inertia.Props{})
}
