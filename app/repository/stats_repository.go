package repository

import (
	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// statsRepository implements the StatsRepository interface
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository instance
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Dashboard counts users, open events, published news and pending articles
func (r *statsRepository) Dashboard() (*models.DashboardStats, error) {
	var stats models.DashboardStats

	if err := r.db.Model(&models.User{}).Count(&stats.TotalMembers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Event{}).Where("status = ?", models.EventStatusOpen).
		Count(&stats.ActiveEvents).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.News{}).Where("is_published = ?", true).
		Count(&stats.PublishedNews).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Article{}).Where("status = ?", models.ArticleStatusPending).
		Count(&stats.PendingArticles).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
