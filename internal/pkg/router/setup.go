package router

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/MemberPortal/app/controllers"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/config"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/middleware"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Options carries everything the routers need.
type Options struct {
	Config   *config.Config
	Deps     controllers.Dependencies
	Sessions *fibersession.Store
	Login    *middleware.LoginProtection
	// Cache backs the API rate limiter when set.
	Cache *redis.Client
	// Version is reported in the generated API document.
	Version string
}

// InstallRouter registers the API and the docs and ops endpoints. The API
// router runs first because the docs UI serves its generated document.
func InstallRouter(app *fiber.App, opts Options) error {
	api, err := NewApiRouter(opts)
	if err != nil {
		return err
	}
	setup(app, api, NewHttpRouter(opts, api.Document()))
	return nil
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
