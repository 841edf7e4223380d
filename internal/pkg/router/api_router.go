package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/MemberPortal/app/controllers"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/apidocs"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/cache"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/middleware"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/session"
)

const openAPIPath = "/api/docs/openapi.json"

type route struct {
	apidocs.Operation
	handler fiber.Handler
	// extra handlers run after the access check and before the handler.
	extra []fiber.Handler
}

type ApiRouter struct {
	opts   Options
	routes []route
	raw    []byte
}

// NewApiRouter builds the route table and its OpenAPI document.
func NewApiRouter(opts Options) (*ApiRouter, error) {
	r := &ApiRouter{opts: opts}
	r.routes = r.buildRoutes()

	ops := make([]apidocs.Operation, 0, len(r.routes))
	for _, rt := range r.routes {
		ops = append(ops, rt.Operation)
	}
	title := "Member Portal"
	if opts.Config != nil && opts.Config.AppName != "" {
		title = opts.Config.AppName
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	doc, err := apidocs.Build(title+" API", version, session.CookieName, ops)
	if err != nil {
		return nil, fmt.Errorf("build api document: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode api document: %w", err)
	}
	r.raw = raw
	return r, nil
}

// Document returns the encoded OpenAPI document.
func (h *ApiRouter) Document() []byte {
	return h.raw
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api",
		h.rateLimiter(),
		middleware.UserContextMiddleware(h.opts.Sessions, h.opts.Deps.Factory.GetRepositories().User),
	)

	for _, rt := range h.routes {
		handlers := []fiber.Handler{}
		if guard := accessGuard(rt.Access); guard != nil {
			handlers = append(handlers, guard)
		}
		handlers = append(handlers, rt.extra...)
		handlers = append(handlers, rt.handler)
		api.Add(rt.Method, strings.TrimPrefix(rt.Path, "/api"), handlers...)
	}

	app.Get(openAPIPath, func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(h.raw)
	})

	log.Infof("[Router] %d api routes installed", len(h.routes))
}

func (h *ApiRouter) rateLimiter() fiber.Handler {
	limit := 300
	if h.opts.Config != nil {
		limit = h.opts.Config.APIRateLimit
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "too_many_requests",
				"message": "rate limit exceeded, try again later",
			})
		},
		Storage: cache.FiberStorage(h.opts.Cache, cache.DBLimiter),
	})
}

func accessGuard(access apidocs.Access) fiber.Handler {
	switch access {
	case apidocs.AccessAuth:
		return middleware.RequireAuth
	case apidocs.AccessMember:
		return middleware.RequireMemberOrAdmin
	case apidocs.AccessAdmin:
		return middleware.RequireAdmin
	}
	return nil
}

func (h *ApiRouter) loginGuard() []fiber.Handler {
	if h.opts.Login == nil {
		return nil
	}
	return []fiber.Handler{h.opts.Login.Middleware()}
}

func (h *ApiRouter) buildRoutes() []route {
	deps := h.opts.Deps
	auth := controllers.NewAuthController(deps, h.opts.Sessions)
	news := controllers.NewNewsController(deps)
	events := controllers.NewEventController(deps)
	articles := controllers.NewArticleController(deps)
	comments := controllers.NewCommentController(deps)
	notifications := controllers.NewNotificationController(deps)
	users := controllers.NewUserController(deps)
	dashboard := controllers.NewDashboardController(deps)

	op := func(method, path, summary, tag string, access apidocs.Access, req interface{}, status int) apidocs.Operation {
		return apidocs.Operation{Method: method, Path: path, Summary: summary, Tag: tag, Access: access, Request: req, Status: status}
	}
	const (
		pub    = apidocs.AccessPublic
		authed = apidocs.AccessAuth
		member = apidocs.AccessMember
		admin  = apidocs.AccessAdmin
	)

	// Static segments are registered before their :id siblings.
	return []route{
		// auth
		{Operation: op(http.MethodPost, "/api/register", "Create an account", "auth", pub, controllers.RegisterRequest{}, http.StatusCreated), handler: auth.HandleRegister},
		{Operation: op(http.MethodPost, "/api/login", "Log in", "auth", pub, controllers.LoginRequest{}, 0), handler: auth.HandleLogin, extra: h.loginGuard()},
		{Operation: op(http.MethodPost, "/api/logout", "Log out", "auth", authed, nil, 0), handler: auth.HandleLogout},
		{Operation: op(http.MethodGet, "/api/user", "Current user", "auth", authed, nil, 0), handler: auth.HandleCurrentUser},
		{Operation: op(http.MethodPut, "/api/user/profile", "Update own profile", "auth", authed, controllers.ProfileUpdateRequest{}, 0), handler: auth.HandleProfileUpdate},
		{Operation: op(http.MethodGet, "/api/user/registrations", "Own event registrations", "events", authed, nil, 0), handler: events.HandleUserRegistrations},

		// news
		{Operation: op(http.MethodGet, "/api/news", "List news", "news", pub, nil, 0), handler: news.HandleNewsIndex},
		{Operation: op(http.MethodGet, "/api/news/:id", "Show a news item", "news", pub, nil, 0), handler: news.HandleNewsShow},
		{Operation: op(http.MethodGet, "/api/news/:id/comments", "Approved comments of a news item", "news", pub, nil, 0), handler: news.HandleNewsComments},
		{Operation: op(http.MethodPost, "/api/news", "Create a news item", "news", member, controllers.NewsRequest{}, http.StatusCreated), handler: news.HandleNewsCreate},
		{Operation: op(http.MethodPut, "/api/news/:id", "Update a news item", "news", member, controllers.NewsUpdateRequest{}, 0), handler: news.HandleNewsUpdate},
		{Operation: op(http.MethodDelete, "/api/news/:id", "Delete a news item", "news", member, nil, http.StatusNoContent), handler: news.HandleNewsDelete},

		// events
		{Operation: op(http.MethodGet, "/api/events", "List events", "events", pub, nil, 0), handler: events.HandleEventsIndex},
		{Operation: op(http.MethodGet, "/api/events/:id", "Show an event", "events", pub, nil, 0), handler: events.HandleEventShow},
		{Operation: op(http.MethodGet, "/api/events/:id/comments", "Approved comments of an event", "events", pub, nil, 0), handler: events.HandleEventComments},
		{Operation: op(http.MethodPost, "/api/events", "Create an event", "events", member, controllers.EventRequest{}, http.StatusCreated), handler: events.HandleEventCreate},
		{Operation: op(http.MethodPut, "/api/events/:id", "Update an event", "events", member, controllers.EventUpdateRequest{}, 0), handler: events.HandleEventUpdate},
		{Operation: op(http.MethodDelete, "/api/events/:id", "Delete an event", "events", member, nil, http.StatusNoContent), handler: events.HandleEventDelete},
		{Operation: op(http.MethodPost, "/api/events/:id/register", "Register for an event", "events", authed, nil, http.StatusCreated), handler: events.HandleEventRegister},
		{Operation: op(http.MethodDelete, "/api/events/:id/register", "Cancel an event registration", "events", authed, nil, http.StatusNoContent), handler: events.HandleEventUnregister},
		{Operation: op(http.MethodGet, "/api/events/:id/registrations", "Registrations of an event", "events", member, nil, 0), handler: events.HandleEventRegistrations},
		{Operation: op(http.MethodPut, "/api/events/:id/registrations/:userId/attend", "Mark attendance", "events", member, nil, 0), handler: events.HandleMarkAttended},

		// articles
		{Operation: op(http.MethodGet, "/api/articles", "List articles", "articles", authed, nil, 0), handler: articles.HandleArticlesIndex},
		{Operation: op(http.MethodGet, "/api/articles/pending", "Articles awaiting review", "articles", member, nil, 0), handler: articles.HandleArticlesPending},
		{Operation: op(http.MethodGet, "/api/articles/:id", "Show an article", "articles", authed, nil, 0), handler: articles.HandleArticleShow},
		{Operation: op(http.MethodGet, "/api/articles/:id/comments", "Approved comments of an article", "articles", authed, nil, 0), handler: articles.HandleArticleComments},
		{Operation: op(http.MethodPost, "/api/articles", "Submit an article", "articles", authed, controllers.ArticleRequest{}, http.StatusCreated), handler: articles.HandleArticleCreate},
		{Operation: op(http.MethodPut, "/api/articles/:id/review", "Review an article", "articles", member, controllers.ReviewRequest{}, 0), handler: articles.HandleArticleReview},

		// comments
		{Operation: op(http.MethodPost, "/api/comments", "Post a comment", "comments", authed, controllers.CommentRequest{}, http.StatusCreated), handler: comments.HandleCommentCreate},
		{Operation: op(http.MethodPut, "/api/comments/:id/approve", "Approve a comment", "comments", member, nil, 0), handler: comments.HandleCommentApprove},
		{Operation: op(http.MethodDelete, "/api/comments/:id", "Delete a comment", "comments", member, nil, http.StatusNoContent), handler: comments.HandleCommentDelete},

		// notifications
		{Operation: op(http.MethodGet, "/api/notifications", "Own notifications", "notifications", authed, nil, 0), handler: notifications.HandleNotificationsIndex},
		{Operation: op(http.MethodGet, "/api/notifications/stats", "Delivery counters", "notifications", admin, nil, 0), handler: notifications.HandleNotificationStats},
		{Operation: op(http.MethodPut, "/api/notifications/mark-all-read", "Mark all notifications as read", "notifications", authed, nil, 0), handler: notifications.HandleNotificationsMarkAllRead},
		{Operation: op(http.MethodPost, "/api/notifications/urgent", "Send an urgent message to admins", "notifications", admin, controllers.UrgentRequest{}, 0), handler: notifications.HandleUrgentNotification},
		{Operation: op(http.MethodPut, "/api/notifications/:id/read", "Mark a notification as read", "notifications", authed, nil, 0), handler: notifications.HandleNotificationRead},
		{Operation: op(http.MethodDelete, "/api/notifications/:id", "Delete a notification", "notifications", authed, nil, 0), handler: notifications.HandleNotificationDelete},

		// users
		{Operation: op(http.MethodGet, "/api/users", "List users", "users", admin, nil, 0), handler: users.HandleUsersIndex},
		{Operation: op(http.MethodPut, "/api/users/:id/role", "Change a user's role", "users", admin, controllers.RoleRequest{}, 0), handler: users.HandleUserRole},
		{Operation: op(http.MethodPut, "/api/users/:id/status", "Activate or deactivate a user", "users", admin, controllers.StatusRequest{}, 0), handler: users.HandleUserStatus},
		{Operation: op(http.MethodDelete, "/api/users/:id", "Delete a user", "users", admin, nil, http.StatusNoContent), handler: users.HandleUserDelete},

		// dashboard
		{Operation: op(http.MethodGet, "/api/dashboard/stats", "Portal statistics", "dashboard", authed, nil, 0), handler: dashboard.HandleDashboardStats},
	}
}
