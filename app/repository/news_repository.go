package repository

import (
	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// newsRepository implements the NewsRepository interface
type newsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a new news repository instance
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

// Create creates a new news item in the database
func (r *newsRepository) Create(news *models.News) error {
	return r.db.Omit("Author").Create(news).Error
}

// GetByID retrieves a news item with its author
func (r *newsRepository) GetByID(id uint) (*models.News, error) {
	var news models.News
	err := r.db.Preload("Author").First(&news, id).Error
	if err != nil {
		return nil, err
	}
	return &news, nil
}

// GetPublished retrieves published news, newest publication first
func (r *newsRepository) GetPublished() ([]models.News, error) {
	var news []models.News
	err := r.db.Preload("Author").Where("is_published = ?", true).
		Order("published_at DESC").Order("id DESC").Find(&news).Error
	return news, err
}

// GetAll retrieves drafts and published news, newest first
func (r *newsRepository) GetAll() ([]models.News, error) {
	var news []models.News
	err := r.db.Preload("Author").Order("created_at DESC").Order("id DESC").Find(&news).Error
	return news, err
}

// Update persists the editable fields of a news item. The view counter is
// left untouched so concurrent increments are not overwritten.
func (r *newsRepository) Update(news *models.News) error {
	return r.db.Model(news).
		Select("title", "content", "excerpt", "category", "is_published", "published_at", "updated_at").
		Updates(news).Error
}

// Delete soft deletes a news item by its ID
func (r *newsRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.News{}, id)
	return res.RowsAffected > 0, res.Error
}

// IncrementViews adds delta to the persisted view counter
func (r *newsRepository) IncrementViews(id uint, delta int64) error {
	return r.db.Model(&models.News{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", delta)).Error
}

// CountPublished returns the number of published news items
func (r *newsRepository) CountPublished() (int64, error) {
	var count int64
	err := r.db.Model(&models.News{}).Where("is_published = ?", true).Count(&count).Error
	return count, err
}
