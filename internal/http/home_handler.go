package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"visitlog/web"
)

func sendPage(ctx *cartridge.Context, name string) error {
	page, err := web.Page(name)
	if err != nil {
		ctx.Logger.Error("Embedded page missing", slog.String("page", name), slog.Any("error", err))
		return ctx.SendStatus(fiber.StatusNotFound)
	}
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return ctx.Send(page)
}

// HomeIndexAction serves the landing page
func HomeIndexAction(ctx *cartridge.Context) error {
	return sendPage(ctx, "index.html")
}

// DashboardIndexAction serves the dashboard page
func DashboardIndexAction(ctx *cartridge.Context) error {
	return sendPage(ctx, "dashboard.html")
}
