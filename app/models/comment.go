package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment targets exactly one of news, event or article and stays hidden until approved.
type Comment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	AuthorID   uint           `gorm:"not null;index" json:"authorId"`
	Author     *User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	NewsID     *uint          `gorm:"index" json:"newsId"`
	EventID    *uint          `gorm:"index" json:"eventId"`
	ArticleID  *uint          `gorm:"index" json:"articleId"`
	IsApproved bool           `gorm:"not null;default:false;index" json:"isApproved"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TargetCount returns how many of the target references are set.
func (c *Comment) TargetCount() int {
	n := 0
	for _, id := range []*uint{c.NewsID, c.EventID, c.ArticleID} {
		if id != nil && *id != 0 {
			n++
		}
	}
	return n
}
