package models

import "time"

const (
	RegistrationStatusRegistered = "registered"
	RegistrationStatusCancelled  = "cancelled"
	RegistrationStatusAttended   = "attended"
)

// ActiveRegistrationStatuses are the statuses counted against event capacity.
var ActiveRegistrationStatuses = []string{RegistrationStatusRegistered, RegistrationStatusAttended}

// EventRegistration links a user to an event. There is at most one row per
// (event, user); cancelling flips the status instead of deleting the row.
type EventRegistration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventID      uint      `gorm:"not null;uniqueIndex:idx_registration_event_user" json:"eventId"`
	Event        *Event    `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_registration_event_user" json:"userId"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	RegisteredAt time.Time `gorm:"not null" json:"registeredAt"`
	Status       string    `gorm:"size:20;not null;default:'registered';index" json:"status"`
}

func (r *EventRegistration) IsActive() bool {
	return r.Status == RegistrationStatusRegistered || r.Status == RegistrationStatusAttended
}
