package repository

import (
	"time"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by their username
func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists checks whether a username is taken, including soft deleted accounts
func (r *userRepository) UsernameExists(username string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// EmailExists checks whether an email is taken by any account other than exceptID
func (r *userRepository) EmailExists(email string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.User{}).
		Where("email = ? AND id != ?", email, exceptID).Count(&count).Error
	return count > 0, err
}

// Update persists profile fields of an existing user
func (r *userRepository) Update(user *models.User) error {
	return r.db.Model(user).
		Select("email", "full_name", "phone", "bio", "password", "updated_at").
		Updates(user).Error
}

// UpdateRole changes a user's role and returns the updated user
func (r *userRepository) UpdateRole(id uint, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, models.ErrInvalidRole
	}
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// UpdateStatus activates or deactivates a user and returns the updated user
func (r *userRepository) UpdateStatus(id uint, active bool) (*models.User, error) {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// TouchLastLogin records the time of the latest successful login
func (r *userRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.User{}, id)
	return res.RowsAffected > 0, res.Error
}

// List retrieves all users ordered by newest first
func (r *userRepository) List() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Order("id DESC").Find(&users).Error
	return users, err
}

// ListActive retrieves all users that may receive notifications
func (r *userRepository) ListActive() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

// ListActiveByRole retrieves active users holding the given role
func (r *userRepository) ListActiveByRole(role string) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("is_active = ? AND role = ?", true, role).Order("id ASC").Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountOwnedContent counts rows that still reference the user: authored news,
// events, articles and comments, reviewed articles and registrations for
// events that were not deleted.
func (r *userRepository) CountOwnedContent(id uint) (int64, error) {
	owned := []struct {
		model  interface{}
		column string
	}{
		{&models.News{}, "author_id"},
		{&models.Event{}, "organizer_id"},
		{&models.Article{}, "author_id"},
		{&models.Article{}, "reviewed_by"},
		{&models.Comment{}, "author_id"},
	}

	var total int64
	for _, o := range owned {
		var count int64
		if err := r.db.Model(o.model).Where(o.column+" = ?", id).Count(&count).Error; err != nil {
			return 0, err
		}
		total += count
	}

	var registrations int64
	err := r.db.Model(&models.EventRegistration{}).
		Joins("JOIN events ON events.id = event_registrations.event_id AND events.deleted_at IS NULL").
		Where("event_registrations.user_id = ?", id).
		Count(&registrations).Error
	if err != nil {
		return 0, err
	}
	return total + registrations, nil
}

// AdminExists reports whether at least one admin account exists
func (r *userRepository) AdminExists() (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role = ?", models.ROLE_ADMIN).Count(&count).Error
	return count > 0, err
}
