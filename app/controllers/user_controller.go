package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
)

// UserController handles user administration.
type UserController struct {
	deps Dependencies
}

func NewUserController(deps Dependencies) *UserController {
	return &UserController{deps: deps}
}

// HandleUsersIndex lists all users, newest first.
func (uc *UserController) HandleUsersIndex(c *fiber.Ctx) error {
	users, err := uc.deps.repos().User.List()
	if err != nil {
		return internalError(c, "load users", err)
	}
	return c.JSON(users)
}

// HandleUserRole assigns a new role.
func (uc *UserController) HandleUserRole(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req RoleRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	if !models.ValidRole(req.Role) {
		return badRequest(c, "invalid role")
	}

	admin := usercontext.GetUserContext(c)
	if id == admin.UserID && req.Role != models.ROLE_ADMIN {
		return conflict(c, "admins cannot revoke their own admin role")
	}

	user, err := uc.deps.repos().User.UpdateRole(id, req.Role)
	if err != nil {
		return respondError(c, "user", "update role", err)
	}
	log.Infof("[Users] user %d is now %s (by %d)", user.ID, user.Role, admin.UserID)
	return c.JSON(user)
}

// HandleUserStatus activates or deactivates an account.
func (uc *UserController) HandleUserStatus(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req StatusRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	admin := usercontext.GetUserContext(c)
	if id == admin.UserID && !*req.IsActive {
		return conflict(c, "admins cannot deactivate themselves")
	}

	user, err := uc.deps.repos().User.UpdateStatus(id, *req.IsActive)
	if err != nil {
		return respondError(c, "user", "update status", err)
	}
	uc.deps.Stats.Invalidate(c.UserContext())
	return c.JSON(user)
}

// HandleUserDelete removes an account that owns no content.
func (uc *UserController) HandleUserDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	if id == usercontext.GetUserID(c) {
		return conflict(c, "admins cannot delete themselves")
	}

	err := uc.deps.Factory.WithTx(func(repos *repository.Repositories) error {
		owned, err := repos.User.CountOwnedContent(id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return models.ErrUserHasContent
		}
		deleted, err := repos.User.Delete(id)
		if err != nil {
			return err
		}
		if !deleted {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return respondError(c, "user", "delete user", err)
	}

	uc.deps.Stats.Invalidate(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}
