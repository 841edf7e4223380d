package models

import (
	"time"

	"gorm.io/gorm"
)

// News represents a news item published by a member or admin
type News struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	Excerpt     string         `gorm:"type:text" json:"excerpt"`
	Category    string         `gorm:"size:100;not null;index" json:"category"`
	AuthorID    uint           `gorm:"not null;index" json:"authorId"`
	Author      *User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	IsPublished bool           `gorm:"not null;index" json:"isPublished"`
	PublishedAt *time.Time     `json:"publishedAt"`
	Views       int64          `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the News model
func (News) TableName() string {
	return "news"
}

// SetPublished toggles the publication flag and keeps PublishedAt consistent with it.
// Returns true when the item transitioned from draft to published.
func (n *News) SetPublished(published bool, now time.Time) bool {
	if published == n.IsPublished {
		return false
	}
	n.IsPublished = published
	if !published {
		n.PublishedAt = nil
		return false
	}
	n.PublishedAt = &now
	return true
}
