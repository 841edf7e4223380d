package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MemberPortal/app/models"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint   `json:"userId"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	IsAdmin    bool   `json:"isAdmin"`
}

// FromUser builds the context of a logged in user.
func FromUser(u *models.User) UserContext {
	return UserContext{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       u.Role,
		IsLoggedIn: true,
		IsAdmin:    u.IsAdmin(),
	}
}

// IsMemberOrAdmin reports whether the user belongs to a content-managing tier.
func (u UserContext) IsMemberOrAdmin() bool {
	return u.IsLoggedIn && (u.Role == models.ROLE_MEMBER || u.Role == models.ROLE_ADMIN)
}

// HasRole reports whether the user holds one of the given roles.
func (u UserContext) HasRole(roles ...string) bool {
	if !u.IsLoggedIn {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// SetUser stores the loaded user and its context on the request.
func SetUser(c *fiber.Ctx, u *models.User) {
	c.Locals(KeyUser, u)
	c.Locals(KeyUserContext, FromUser(u))
}

// SetAnonymous marks the request as anonymous.
func SetAnonymous(c *fiber.Ctx) {
	c.Locals(KeyUser, nil)
	c.Locals(KeyUserContext, UserContext{})
}

// GetUser returns the full user record loaded for this request, or nil.
func GetUser(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(KeyUser).(*models.User); ok {
		return u
	}
	return nil
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
