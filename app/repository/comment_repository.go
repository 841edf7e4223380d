package repository

import (
	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// commentRepository implements the CommentRepository interface
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository instance
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create stores a new comment awaiting approval
func (r *commentRepository) Create(comment *models.Comment) error {
	comment.IsApproved = false
	return r.db.Omit("Author").Create(comment).Error
}

// GetByID retrieves a comment with its author
func (r *commentRepository) GetByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Preload("Author").First(&comment, id).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) approvedFor(column string, id uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.Preload("Author").
		Where(column+" = ? AND is_approved = ?", id, true).
		Order("created_at DESC").Order("id DESC").Find(&comments).Error
	return comments, err
}

// GetApprovedForNews retrieves approved comments on a news item, newest first
func (r *commentRepository) GetApprovedForNews(newsID uint) ([]models.Comment, error) {
	return r.approvedFor("news_id", newsID)
}

// GetApprovedForEvent retrieves approved comments on an event, newest first
func (r *commentRepository) GetApprovedForEvent(eventID uint) ([]models.Comment, error) {
	return r.approvedFor("event_id", eventID)
}

// GetApprovedForArticle retrieves approved comments on an article, newest first
func (r *commentRepository) GetApprovedForArticle(articleID uint) ([]models.Comment, error) {
	return r.approvedFor("article_id", articleID)
}

// Approve marks a comment as visible and returns it
func (r *commentRepository) Approve(id uint) (*models.Comment, error) {
	res := r.db.Model(&models.Comment{}).Where("id = ?", id).Update("is_approved", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// Delete soft deletes a comment by its ID
func (r *commentRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.Comment{}, id)
	return res.RowsAffected > 0, res.Error
}
