package repository

import (
	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

const notificationBatchSize = 200

// notificationRepository implements the NotificationRepository interface
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create stores a single notification
func (r *notificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// CreateBatch stores many notifications in chunks
func (r *notificationRepository) CreateBatch(notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.CreateInBatches(notifications, notificationBatchSize).Error
}

// ListForUser retrieves the newest notifications of a user
func (r *notificationRepository) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, err
}

// MarkRead marks one of the user's notifications as read
func (r *notificationRepository) MarkRead(id, userID uint) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

// MarkAllRead marks every unread notification of the user as read
func (r *notificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// Delete soft deletes one of the user's notifications
func (r *notificationRepository) Delete(id, userID uint) (bool, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&models.Notification{}, id)
	return res.RowsAffected > 0, res.Error
}

// CountUnread returns the number of unread notifications of a user
func (r *notificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}
