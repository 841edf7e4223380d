package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/notify"
)

// Notifier fans domain events out to the notification channels. Calls never fail.
type Notifier interface {
	WelcomeUser(u *models.User)
	NewsPublished(n *models.News)
	EventRegistered(e *models.Event, u *models.User)
	EventCancelled(e *models.Event)
	ArticleReviewed(a *models.Article)
	NotifyAdminsUrgent(message string) int
	Stats() notify.Stats
}

// StatsProvider serves the dashboard counters.
type StatsProvider interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	Invalidate(ctx context.Context)
}

// ViewRecorder counts news views.
type ViewRecorder interface {
	AddNewsView(ctx context.Context, newsID uint) error
}

// LoginGuard tracks failed logins per account.
type LoginGuard interface {
	IsLocked(username string) (bool, time.Duration)
	RecordFailure(username string) (bool, time.Duration)
	RecordSuccess(username string)
}

// Dependencies are shared by every API controller.
type Dependencies struct {
	Factory  *repository.Factory
	Notifier Notifier
	Stats    StatsProvider
	Views    ViewRecorder
	Login    LoginGuard
	Now      func() time.Time
}

func (d Dependencies) repos() *repository.Repositories {
	return d.Factory.GetRepositories()
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// errorResponse writes the common error body.
func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return errorResponse(c, fiber.StatusBadRequest, "bad_request", message)
}

func notFound(c *fiber.Ctx, what string) error {
	return errorResponse(c, fiber.StatusNotFound, "not_found", what+" not found")
}

func conflict(c *fiber.Ctx, message string) error {
	return errorResponse(c, fiber.StatusConflict, "conflict", message)
}

func internalError(c *fiber.Ctx, action string, err error) error {
	log.Errorf("[API] %s %s: %s: %v", c.Method(), c.Path(), action, err)
	return errorResponse(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to "+action)
}

// respondError maps repository and domain errors to HTTP responses.
func respondError(c *fiber.Ctx, what, action string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(c, what)
	case errors.Is(err, models.ErrNotRegistered):
		return errorResponse(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrEventFull),
		errors.Is(err, models.ErrRegistrationClosed),
		errors.Is(err, models.ErrArticleAlreadyReviewed),
		errors.Is(err, models.ErrUserHasContent):
		return conflict(c, err.Error())
	case errors.Is(err, models.ErrInvalidReviewStatus),
		errors.Is(err, models.ErrInvalidRole):
		return badRequest(c, err.Error())
	}
	return internalError(c, action, err)
}

// parseID reads a positive integer route parameter.
func parseID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func invalidID(c *fiber.Ctx) error {
	return badRequest(c, "invalid id")
}

// decodeBody parses the JSON body into dst and validates it. When it returns
// false the 400 response has already been written and err must be returned.
func decodeBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "invalid request body")
	}
	if errs := models.ValidateStruct(dst); len(errs) > 0 {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"message": "validation failed",
			"errors":  errs,
		})
	}
	return true, nil
}

// ErrorHandler renders errors that escape handlers in the API error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "error"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case fiber.StatusTooManyRequests:
			code = "too_many_requests"
		case fiber.StatusRequestEntityTooLarge:
			code = "payload_too_large"
		case fiber.StatusBadRequest:
			code = "bad_request"
		}
		return errorResponse(c, fe.Code, code, fe.Message)
	}
	return internalError(c, "process request", err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
