package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/session"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request.
// The user is reloaded from the database so role changes apply immediately;
// sessions of deleted or deactivated users are destroyed.
func UserContextMiddleware(store *fibersession.Store, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.UserID(store, c)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				log.Warnf("[Session] %v", err)
			}
			usercontext.SetAnonymous(c)
			return c.Next()
		}

		user, err := users.GetByID(userID)
		switch {
		case err == nil && user.IsActive:
			usercontext.SetUser(c, user)
			return c.Next()
		case err == nil, errors.Is(err, gorm.ErrRecordNotFound):
			if derr := session.Logout(store, c); derr != nil {
				log.Warnf("[Session] failed to drop session of user %d: %v", userID, derr)
			}
		default:
			log.Errorf("[Session] failed to load user %d: %v", userID, err)
		}

		usercontext.SetAnonymous(c)
		return c.Next()
	}
}
