package controllers

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/session"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/sms"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

// AuthController handles registration, login and the own profile.
type AuthController struct {
	deps     Dependencies
	sessions *fibersession.Store
}

func NewAuthController(deps Dependencies, sessions *fibersession.Store) *AuthController {
	return &AuthController{deps: deps, sessions: sessions}
}

// HandleRegister creates a user account and logs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	repos := ac.deps.repos()

	exists, err := repos.User.UsernameExists(username)
	if err != nil {
		return internalError(c, "register user", err)
	}
	if exists {
		return badRequest(c, "username already taken")
	}
	exists, err = repos.User.EmailExists(email, 0)
	if err != nil {
		return internalError(c, "register user", err)
	}
	if exists {
		return badRequest(c, "email already registered")
	}

	user, err := models.CreateUser(username, email, req.Password, utils.SanitizeText(req.FullName))
	if err != nil {
		if errs := models.ValidationErrors(err); errs != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "validation_failed",
				"message": "validation failed",
				"errors":  errs,
			})
		}
		return internalError(c, "register user", err)
	}
	user.Bio = utils.SanitizeText(req.Bio)
	if req.Phone != "" {
		user.Phone = sms.NormalizePhoneNumber(req.Phone)
	}

	if err := repos.User.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return badRequest(c, "username or email already registered")
		}
		return internalError(c, "register user", err)
	}

	if err := session.Login(ac.sessions, c, user.ID); err != nil {
		return internalError(c, "start session", err)
	}

	log.Infof("[Auth] registered user %d (%s)", user.ID, user.Username)
	ac.deps.Notifier.WelcomeUser(user)
	ac.deps.Stats.Invalidate(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(user)
}

func tooManyAttempts(c *fiber.Ctx, retryAfter float64) error {
	seconds := int(math.Ceil(retryAfter))
	c.Set(fiber.HeaderRetryAfter, fmt.Sprint(seconds))
	return errorResponse(c, fiber.StatusTooManyRequests, "too_many_requests",
		fmt.Sprintf("account temporarily locked, try again in %d seconds", seconds))
}

// HandleLogin verifies the credentials and starts a session.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	username := strings.TrimSpace(req.Username)

	if locked, remaining := ac.deps.Login.IsLocked(username); locked {
		return tooManyAttempts(c, remaining.Seconds())
	}

	user, err := ac.deps.repos().User.GetByUsername(username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "log in", err)
	}
	if user == nil || !user.CheckPassword(req.Password) {
		if locked, lockout := ac.deps.Login.RecordFailure(username); locked {
			log.Warnf("[Auth] account %q locked for %s", username, lockout)
			return tooManyAttempts(c, lockout.Seconds())
		}
		return errorResponse(c, fiber.StatusUnauthorized, "invalid_credentials", "invalid username or password")
	}
	if !user.IsActive {
		return errorResponse(c, fiber.StatusForbidden, "account_disabled", "account is deactivated")
	}

	ac.deps.Login.RecordSuccess(username)
	if err := session.Login(ac.sessions, c, user.ID); err != nil {
		return internalError(c, "start session", err)
	}

	now := ac.deps.now()
	if err := ac.deps.repos().User.TouchLastLogin(user.ID, now); err != nil {
		log.Warnf("[Auth] failed to record login of user %d: %v", user.ID, err)
	} else {
		user.LastLoginAt = &now
	}

	return c.JSON(user)
}

// HandleLogout ends the current session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Logout(ac.sessions, c); err != nil {
		return internalError(c, "log out", err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleCurrentUser returns the logged in user.
func (ac *AuthController) HandleCurrentUser(c *fiber.Ctx) error {
	user := usercontext.GetUser(c)
	if user == nil {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	return c.JSON(user)
}

// HandleProfileUpdate changes the editable profile fields of the logged in user.
func (ac *AuthController) HandleProfileUpdate(c *fiber.Ctx) error {
	current := usercontext.GetUser(c)
	if current == nil {
		return errorResponse(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}

	var req ProfileUpdateRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	// work on a copy so a failed update leaves the request user untouched
	user := *current
	repos := ac.deps.repos()

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			taken, err := repos.User.EmailExists(email, user.ID)
			if err != nil {
				return internalError(c, "update profile", err)
			}
			if taken {
				return badRequest(c, "email already registered")
			}
			user.Email = email
		}
	}
	if req.FullName != nil {
		user.FullName = utils.SanitizeText(*req.FullName)
	}
	if req.Bio != nil {
		user.Bio = utils.SanitizeText(*req.Bio)
	}
	if req.Phone != nil {
		user.Phone = ""
		if *req.Phone != "" {
			user.Phone = sms.NormalizePhoneNumber(*req.Phone)
		}
	}

	if err := repos.User.Update(&user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return badRequest(c, "email already registered")
		}
		return internalError(c, "update profile", err)
	}
	return c.JSON(user)
}
