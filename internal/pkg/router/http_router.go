package router

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

// HttpRouter serves the non-API endpoints: docs UI, health and metrics.
type HttpRouter struct {
	opts     Options
	document []byte
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	title := "Member Portal API"
	if h.opts.Config != nil {
		title = h.opts.Config.AppName + " API"
	}

	// SWAGGER / OPENAPI
	if len(h.document) > 0 {
		app.Use(swagger.New(swagger.Config{
			BasePath:    "/docs/",
			FilePath:    "openapi.json",
			FileContent: h.document,
			Path:        "api",
			Title:       title,
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// fiber metrics
	if h.opts.Config != nil && h.opts.Config.MetricsEnabled() {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				h.opts.Config.MetricsUser: h.opts.Config.MetricsPassword,
			},
		}), monitor.New(monitor.Config{Title: title + " Metrics"}))
	}
}

func NewHttpRouter(opts Options, document []byte) *HttpRouter {
	return &HttpRouter{opts: opts, document: document}
}
