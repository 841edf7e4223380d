package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationTypeWelcome         = "welcome"
	NotificationTypeNewsPublished   = "news_published"
	NotificationTypeEventRegistered = "event_registered"
	NotificationTypeEventCancelled  = "event_cancelled"
	NotificationTypeEventReminder   = "event_reminder"
	NotificationTypeArticleReviewed = "article_reviewed"
	NotificationTypeSystem          = "system"
)

// Notification is an in-app message shown to a single user.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"userId"`
	Type      string         `gorm:"size:50;not null" json:"type"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewNotification builds an unread notification. data is stored as JSON and may be nil.
func NewNotification(userID uint, notificationType, title, message string, data map[string]interface{}) Notification {
	n := Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			n.Data = datatypes.JSON(raw)
		}
	}
	return n
}
