package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EventStatusOpen      = "open"
	EventStatusClosed    = "closed"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Event is a scheduled gathering members can register for.
// RegisteredCount mirrors the number of active registrations and is only
// changed inside the registration transaction.
type Event struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Title                string         `gorm:"size:255;not null" json:"title"`
	Description          string         `gorm:"type:text;not null" json:"description"`
	EventDate            time.Time      `gorm:"not null;index" json:"eventDate"`
	Location             string         `gorm:"size:255;not null" json:"location"`
	Capacity             int            `gorm:"not null" json:"capacity"`
	RegisteredCount      int            `gorm:"not null;default:0" json:"registeredCount"`
	OrganizerID          uint           `gorm:"not null;index" json:"organizerId"`
	Organizer            *User          `gorm:"foreignKey:OrganizerID;constraint:OnDelete:RESTRICT" json:"organizer,omitempty"`
	Status               string         `gorm:"size:20;not null;default:'open';index" json:"status"`
	RegistrationDeadline *time.Time     `json:"registrationDeadline"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func ValidEventStatus(status string) bool {
	switch status {
	case EventStatusOpen, EventStatusClosed, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// CheckRegistrationOpen returns ErrRegistrationClosed unless new registrations are accepted at now.
func (e *Event) CheckRegistrationOpen(now time.Time) error {
	if e.Status != EventStatusOpen {
		return ErrRegistrationClosed
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return ErrRegistrationClosed
	}
	if now.After(e.EventDate) {
		return ErrRegistrationClosed
	}
	return nil
}

func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// SeatsLeft never goes below zero.
func (e *Event) SeatsLeft() int {
	if left := e.Capacity - e.RegisteredCount; left > 0 {
		return left
	}
	return 0
}
