package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/MemberPortal/internal/pkg/utils"
)

// EventController handles events and event registrations.
type EventController struct {
	deps Dependencies
}

func NewEventController(deps Dependencies) *EventController {
	return &EventController{deps: deps}
}

// HandleEventsIndex lists every event, latest event date first.
func (ec *EventController) HandleEventsIndex(c *fiber.Ctx) error {
	events, err := ec.deps.repos().Event.GetAll()
	if err != nil {
		return internalError(c, "load events", err)
	}
	return c.JSON(events)
}

func (ec *EventController) HandleEventShow(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	event, err := ec.deps.repos().Event.GetByID(id)
	if err != nil {
		return respondError(c, "event", "load event", err)
	}
	return c.JSON(event)
}

// checkSchedule rejects a registration deadline after the event itself.
func checkSchedule(c *fiber.Ctx, event *models.Event) (bool, error) {
	if event.RegistrationDeadline != nil && event.RegistrationDeadline.After(event.EventDate) {
		return false, badRequest(c, "registration deadline must not be after the event date")
	}
	return true, nil
}

// HandleEventCreate schedules a new open event organized by the current user.
func (ec *EventController) HandleEventCreate(c *fiber.Ctx) error {
	var req EventRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	organizer := usercontext.GetUser(c)
	event := &models.Event{
		Title:                utils.SanitizeText(req.Title),
		Description:          utils.SanitizeHTML(req.Description),
		EventDate:            req.EventDate.UTC(),
		Location:             utils.SanitizeText(req.Location),
		Capacity:             req.Capacity,
		OrganizerID:          organizer.ID,
		Status:               models.EventStatusOpen,
		RegistrationDeadline: utcPtr(req.RegistrationDeadline),
	}
	if ok, err := checkSchedule(c, event); !ok {
		return err
	}

	if err := ec.deps.repos().Event.Create(event); err != nil {
		return internalError(c, "create event", err)
	}
	event.Organizer = organizer
	ec.deps.Stats.Invalidate(c.UserContext())

	return c.Status(fiber.StatusCreated).JSON(event)
}

// HandleEventUpdate applies a partial update. Cancelling an event informs
// everyone registered for it.
func (ec *EventController) HandleEventUpdate(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	var req EventUpdateRequest
	if ok, err := decodeBody(c, &req); !ok {
		return err
	}

	repos := ec.deps.repos()
	event, err := repos.Event.GetByID(id)
	if err != nil {
		return respondError(c, "event", "load event", err)
	}
	previousStatus := event.Status

	if req.Title != nil {
		event.Title = utils.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		event.Description = utils.SanitizeHTML(*req.Description)
	}
	if req.EventDate != nil {
		event.EventDate = req.EventDate.UTC()
	}
	if req.Location != nil {
		event.Location = utils.SanitizeText(*req.Location)
	}
	if req.Capacity != nil {
		if *req.Capacity < event.RegisteredCount {
			return badRequest(c, "capacity must not be lower than the number of registrations")
		}
		event.Capacity = *req.Capacity
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = utcPtr(req.RegistrationDeadline)
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if ok, err := checkSchedule(c, event); !ok {
		return err
	}

	if err := repos.Event.Update(event); err != nil {
		return internalError(c, "update event", err)
	}

	if event.Status != previousStatus {
		log.Infof("[Events] event %d: %s -> %s", event.ID, previousStatus, event.Status)
		if event.Status == models.EventStatusCancelled {
			ec.deps.Notifier.EventCancelled(event)
		}
		ec.deps.Stats.Invalidate(c.UserContext())
	}
	return c.JSON(event)
}

func (ec *EventController) HandleEventDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	deleted, err := ec.deps.repos().Event.Delete(id)
	if err != nil {
		return internalError(c, "delete event", err)
	}
	if !deleted {
		return notFound(c, "event")
	}
	ec.deps.Stats.Invalidate(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleEventRegister registers the current user for the event.
func (ec *EventController) HandleEventRegister(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	user := usercontext.GetUser(c)
	repos := ec.deps.repos()

	reg, err := repos.Event.Register(id, user.ID, ec.deps.now())
	if err != nil {
		return respondError(c, "event", "register for event", err)
	}

	event, err := repos.Event.GetByID(id)
	if err != nil {
		log.Warnf("[Events] event %d: registration of user %d stored but event reload failed: %v", id, user.ID, err)
	} else {
		ec.deps.Notifier.EventRegistered(event, user)
		reg.Event = event
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

// HandleEventUnregister cancels the current user's registration.
func (ec *EventController) HandleEventUnregister(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	user := usercontext.GetUser(c)
	if err := ec.deps.repos().Event.Unregister(id, user.ID); err != nil {
		return respondError(c, "event", "cancel registration", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleEventRegistrations lists all registrations of an event.
func (ec *EventController) HandleEventRegistrations(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	repos := ec.deps.repos()
	if _, err := repos.Event.GetByID(id); err != nil {
		return respondError(c, "event", "load event", err)
	}
	regs, err := repos.Event.GetRegistrations(id)
	if err != nil {
		return internalError(c, "load registrations", err)
	}
	return c.JSON(regs)
}

// HandleUserRegistrations lists the current user's registrations.
func (ec *EventController) HandleUserRegistrations(c *fiber.Ctx) error {
	user := usercontext.GetUser(c)
	regs, err := ec.deps.repos().Event.GetUserRegistrations(user.ID)
	if err != nil {
		return internalError(c, "load registrations", err)
	}
	return c.JSON(regs)
}

// HandleMarkAttended records that a registered user attended the event.
func (ec *EventController) HandleMarkAttended(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return invalidID(c)
	}
	reg, err := ec.deps.repos().Event.MarkAttended(id, userID)
	if err != nil {
		return respondError(c, "registration", "mark attendance", err)
	}
	return c.JSON(reg)
}

// HandleEventComments lists the approved comments of an event.
func (ec *EventController) HandleEventComments(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return invalidID(c)
	}
	repos := ec.deps.repos()
	if _, err := repos.Event.GetByID(id); err != nil {
		return respondError(c, "event", "load event", err)
	}
	comments, err := repos.Comment.GetApprovedForEvent(id)
	if err != nil {
		return internalError(c, "load comments", err)
	}
	return c.JSON(comments)
}
