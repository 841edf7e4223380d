package repository

import (
	"time"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// articleRepository implements the ArticleRepository interface
type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository instance
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

// Create stores a new submission. Status and submission time are always reset.
func (r *articleRepository) Create(article *models.Article) error {
	article.Status = models.ArticleStatusPending
	article.ReviewedBy = nil
	article.ReviewedAt = nil
	article.PublishedAt = nil
	if article.SubmittedAt.IsZero() {
		article.SubmittedAt = time.Now()
	}
	return r.db.Omit("Author", "Reviewer").Create(article).Error
}

// GetByID retrieves an article with author and reviewer
func (r *articleRepository) GetByID(id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.Preload("Author").Preload("Reviewer").First(&article, id).Error
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetAll retrieves all articles, newest submission first
func (r *articleRepository) GetAll() ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Preload("Author").Preload("Reviewer").
		Order("submitted_at DESC").Order("id DESC").Find(&articles).Error
	return articles, err
}

// GetVisibleTo retrieves approved articles plus the user's own submissions
func (r *articleRepository) GetVisibleTo(userID uint) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Preload("Author").Preload("Reviewer").
		Where("status = ? OR author_id = ?", models.ArticleStatusApproved, userID).
		Order("submitted_at DESC").Order("id DESC").Find(&articles).Error
	return articles, err
}

// GetByStatus retrieves articles with the given status, oldest submission first
func (r *articleRepository) GetByStatus(status string) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.Preload("Author").Where("status = ?", status).
		Order("submitted_at ASC").Order("id ASC").Find(&articles).Error
	return articles, err
}

// Review records a review decision. The update is conditional on the article
// still being pending so two concurrent reviews cannot both succeed.
func (r *articleRepository) Review(id uint, status string, reviewerID uint, comments string, now time.Time) (*models.Article, error) {
	if !models.ValidReviewStatus(status) {
		return nil, models.ErrInvalidReviewStatus
	}

	var article models.Article
	if err := r.db.First(&article, id).Error; err != nil {
		return nil, err
	}
	if err := article.Review(status, reviewerID, comments, now); err != nil {
		return nil, err
	}

	res := r.db.Model(&models.Article{}).
		Where("id = ? AND status = ?", id, models.ArticleStatusPending).
		Updates(map[string]interface{}{
			"status":          article.Status,
			"reviewed_by":     reviewerID,
			"review_comments": article.ReviewComments,
			"reviewed_at":     now,
			"published_at":    article.PublishedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrArticleAlreadyReviewed
	}

	return r.GetByID(id)
}

// CountByStatus returns the number of articles with the given status
func (r *articleRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Article{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
