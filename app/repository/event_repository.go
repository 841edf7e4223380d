package repository

import (
	"errors"
	"time"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support it.
// SQLite serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Create creates a new event in the database
func (r *eventRepository) Create(event *models.Event) error {
	return r.db.Omit("Organizer").Create(event).Error
}

// GetByID retrieves an event with its organizer
func (r *eventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.Preload("Organizer").First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetAll retrieves all events, latest event date first
func (r *eventRepository) GetAll() ([]models.Event, error) {
	var events []models.Event
	err := r.db.Preload("Organizer").Order("event_date DESC").Order("id DESC").Find(&events).Error
	return events, err
}

// GetStartingBetween retrieves open events taking place in [from, to)
func (r *eventRepository) GetStartingBetween(from, to time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("event_date >= ? AND event_date < ? AND status = ?", from, to, models.EventStatusOpen).
		Order("event_date ASC").Find(&events).Error
	return events, err
}

// Update persists the editable fields of an event. registered_count is owned
// by Register/Unregister and never written here.
func (r *eventRepository) Update(event *models.Event) error {
	return r.db.Model(event).
		Select("title", "description", "event_date", "location", "capacity", "status", "registration_deadline", "updated_at").
		Updates(event).Error
}

// Delete soft deletes an event by its ID
func (r *eventRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.Event{}, id)
	return res.RowsAffected > 0, res.Error
}

// CountOpen returns the number of events accepting registrations
func (r *eventRepository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&models.Event{}).Where("status = ?", models.EventStatusOpen).Count(&count).Error
	return count, err
}

// CloseExpired closes open events whose registration deadline has passed
func (r *eventRepository) CloseExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.Event{}).
		Where("status = ? AND registration_deadline IS NOT NULL AND registration_deadline < ?", models.EventStatusOpen, now).
		Update("status", models.EventStatusClosed)
	return res.RowsAffected, res.Error
}

// Register adds the user to the event. The event row is locked so the
// capacity check and the counter increment happen atomically. A previously
// cancelled registration is reactivated instead of inserting a second row.
func (r *eventRepository) Register(eventID, userID uint, now time.Time) (*models.EventRegistration, error) {
	var reg models.EventRegistration

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			return err
		}
		if err := event.CheckRegistrationOpen(now); err != nil {
			return err
		}

		err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
		switch {
		case err == nil:
			if reg.IsActive() {
				return models.ErrAlreadyRegistered
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			reg = models.EventRegistration{EventID: eventID, UserID: userID}
		default:
			return err
		}

		if event.IsFull() {
			return models.ErrEventFull
		}

		reg.Status = models.RegistrationStatusRegistered
		reg.RegisteredAt = now
		if err := tx.Omit(clause.Associations).Save(&reg).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrAlreadyRegistered
			}
			return err
		}

		return tx.Model(&models.Event{}).Where("id = ?", eventID).
			UpdateColumn("registered_count", gorm.Expr("registered_count + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Unregister cancels an active registration and frees its seat
func (r *eventRepository) Unregister(eventID, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.EventRegistration{}).
			Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.RegistrationStatusRegistered).
			Update("status", models.RegistrationStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotRegistered
		}

		return tx.Model(&models.Event{}).Where("id = ? AND registered_count > 0", eventID).
			UpdateColumn("registered_count", gorm.Expr("registered_count - ?", 1)).Error
	})
}

// MarkAttended flags a registration as attended. The seat stays taken.
func (r *eventRepository) MarkAttended(eventID, userID uint) (*models.EventRegistration, error) {
	res := r.db.Model(&models.EventRegistration{}).
		Where("event_id = ? AND user_id = ? AND status = ?", eventID, userID, models.RegistrationStatusRegistered).
		Update("status", models.RegistrationStatusAttended)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrNotRegistered
	}

	var reg models.EventRegistration
	err := r.db.Preload("User").Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetRegistrations retrieves every registration of an event with its user
func (r *eventRepository) GetRegistrations(eventID uint) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	err := r.db.Preload("User").Where("event_id = ?", eventID).
		Order("registered_at ASC").Order("id ASC").Find(&regs).Error
	return regs, err
}

// GetActiveRegistrations retrieves registrations still holding a seat
func (r *eventRepository) GetActiveRegistrations(eventID uint) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	err := r.db.Preload("User").
		Where("event_id = ? AND status IN ?", eventID, models.ActiveRegistrationStatuses).
		Order("registered_at ASC").Find(&regs).Error
	return regs, err
}

// GetUserRegistrations retrieves a user's registrations with their events
func (r *eventRepository) GetUserRegistrations(userID uint) ([]models.EventRegistration, error) {
	var regs []models.EventRegistration
	err := r.db.Preload("Event").Where("user_id = ?", userID).
		Order("registered_at DESC").Order("id DESC").Find(&regs).Error
	return regs, err
}
