package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

const notificationListLimit = 50

// NotificationController serves the in-app notification center.
type NotificationController struct {
	deps Dependencies
}

func NewNotificationController(deps Dependencies) *NotificationController {
	return &NotificationController{deps: deps}
}

// HandleNotificationsIndex lists the latest notifications of the current user.
func (nc *NotificationController) HandleNotificationsIndex(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	notifications, err := nc.deps.repos().Notification.ListForUser(userID, notificationListLimit)
	if err != nil {
		return internalError(c, "load notifications", err)
	}
	unread, err := nc.deps.repos().Notification.CountUnread(userID)
	if err != nil {
		log.Warnf("[Notify] failed to count unread notifications of user %d: %v", userID, err)
	} else {
		c.Set("X-Unread-Count", fmt.Sprint(unread))
	}
	return c.JSON(notifications)
}

// HandleNotificationRead marks one of the current user's notifications as read.
func (nc *NotificationController) HandleNotificationRead(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	updated, err := nc.deps.repos().Notification.MarkRead(id, usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "mark notification as read", err)
	}
	if !updated {
		return notFound(c, "notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

func (nc *NotificationController) HandleNotificationsMarkAllRead(c *fiber.Ctx) error {
	n, err := nc.deps.repos().Notification.MarkAllRead(usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "mark notifications as read", err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": n})
}

// HandleNotificationDelete removes one of the current user's notifications.
func (nc *NotificationController) HandleNotificationDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	deleted, err := nc.deps.repos().Notification.Delete(id, usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "delete notification", err)
	}
	if !deleted {
		return notFound(c, "notification")
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleNotificationStats reports email and SMS delivery counters.
func (nc *NotificationController) HandleNotificationStats(c *fiber.Ctx) error {
	return c.JSON(nc.deps.Notifier.Stats())
}

// HandleUrgentNotification broadcasts a message to every active admin.
func (nc *NotificationController) HandleUrgentNotification(c *fiber.Ctx) error {
	var req UrgentRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}
	message := utils.SanitizeText(req.Message)
	if message == "" {
		return badRequest(c, "message is empty")
	}
	n := nc.deps.Notifier.NotifyAdminsUrgent(message)
	log.Infof("[Notify] urgent message from user %d reached %d admins", usercontext.GetUserID(c), n)
	return c.JSON(fiber.Map{"success": true, "recipients": n})
}
