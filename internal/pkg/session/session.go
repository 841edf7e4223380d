package session

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/cache"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/config"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
)

const CookieName = "session_id"

var ErrNoSession = errors.New("no authenticated session")

var sessionStore *session.Store

// NewSessionStore builds the cookie session store. Sessions live in their own
// Redis database when a cache client is available, otherwise in process memory.
func NewSessionStore(cfg *config.Config, cacheClient *goredis.Client) *session.Store {
	sc := session.Config{
		Expiration:     cfg.SessionExpiration,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionCookieSecure,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	}

	if storage := cache.FiberStorage(cacheClient, cache.DBSessions); storage != nil {
		sc.Storage = storage
	}

	sessionStore = session.New(sc)
	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// Login stores the user in a freshly regenerated session.
func Login(store *session.Store, c *fiber.Ctx, userID uint) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	sess.Set(usercontext.KeyUserID, userID)
	return sess.Save()
}

// Logout destroys the session and expires its cookie.
func Logout(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns the user stored in the session, or ErrNoSession.
func UserID(store *session.Store, c *fiber.Ctx) (uint, error) {
	sess, err := store.Get(c)
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}
	if id, ok := sess.Get(usercontext.KeyUserID).(uint); ok && id > 0 {
		return id, nil
	}
	return 0, ErrNoSession
}
