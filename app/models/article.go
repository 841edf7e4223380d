package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ArticleStatusPending  = "pending"
	ArticleStatusApproved = "approved"
	ArticleStatusRejected = "rejected"
)

// Article is a member submission that goes through a single review.
type Article struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Abstract       string         `gorm:"type:text" json:"abstract"`
	AuthorID       uint           `gorm:"not null;index" json:"authorId"`
	Author         *User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	Status         string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ReviewedBy     *uint          `json:"reviewedBy"`
	Reviewer       *User          `gorm:"foreignKey:ReviewedBy;constraint:OnDelete:RESTRICT" json:"reviewer,omitempty"`
	ReviewComments string         `gorm:"type:text" json:"reviewComments"`
	SubmittedAt    time.Time      `gorm:"not null;index" json:"submittedAt"`
	ReviewedAt     *time.Time     `json:"reviewedAt"`
	PublishedAt    *time.Time     `json:"publishedAt"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidReviewStatus reports whether status is a terminal review outcome.
func ValidReviewStatus(status string) bool {
	return status == ArticleStatusApproved || status == ArticleStatusRejected
}

// Review applies a review decision. Only pending articles can be reviewed and
// only approval sets PublishedAt.
func (a *Article) Review(status string, reviewerID uint, comments string, now time.Time) error {
	if !ValidReviewStatus(status) {
		return ErrInvalidReviewStatus
	}
	if a.Status != ArticleStatusPending {
		return ErrArticleAlreadyReviewed
	}

	a.Status = status
	a.ReviewedBy = &reviewerID
	a.ReviewComments = comments
	a.ReviewedAt = &now
	if status == ArticleStatusApproved {
		a.PublishedAt = &now
	} else {
		a.PublishedAt = nil
	}
	return nil
}

// VisibleTo reports whether a user with the given id and role may read the article.
func (a *Article) VisibleTo(userID uint, role string) bool {
	if role == ROLE_MEMBER || role == ROLE_ADMIN {
		return true
	}
	return a.Status == ArticleStatusApproved || a.AuthorID == userID
}
