package repository

import (
	"time"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UsernameExists(username string) (bool, error)
	EmailExists(email string, exceptID uint) (bool, error)
	Update(user *models.User) error
	UpdateRole(id uint, role string) (*models.User, error)
	UpdateStatus(id uint, active bool) (*models.User, error)
	TouchLastLogin(id uint, at time.Time) error
	Delete(id uint) (bool, error)
	List() ([]models.User, error)
	ListActive() ([]models.User, error)
	ListActiveByRole(role string) ([]models.User, error)
	Count() (int64, error)
	CountOwnedContent(id uint) (int64, error)
	AdminExists() (bool, error)
}

// NewsRepository defines the interface for news-related operations
type NewsRepository interface {
	Create(news *models.News) error
	GetByID(id uint) (*models.News, error)
	GetPublished() ([]models.News, error)
	GetAll() ([]models.News, error)
	Update(news *models.News) error
	Delete(id uint) (bool, error)
	IncrementViews(id uint, delta int64) error
	CountPublished() (int64, error)
}

// EventRepository defines the interface for events and their registrations
type EventRepository interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	GetAll() ([]models.Event, error)
	GetStartingBetween(from, to time.Time) ([]models.Event, error)
	Update(event *models.Event) error
	Delete(id uint) (bool, error)
	CountOpen() (int64, error)
	CloseExpired(now time.Time) (int64, error)

	Register(eventID, userID uint, now time.Time) (*models.EventRegistration, error)
	Unregister(eventID, userID uint) error
	MarkAttended(eventID, userID uint) (*models.EventRegistration, error)
	GetRegistrations(eventID uint) ([]models.EventRegistration, error)
	GetActiveRegistrations(eventID uint) ([]models.EventRegistration, error)
	GetUserRegistrations(userID uint) ([]models.EventRegistration, error)
}

// ArticleRepository defines the interface for article submissions and reviews
type ArticleRepository interface {
	Create(article *models.Article) error
	GetByID(id uint) (*models.Article, error)
	GetAll() ([]models.Article, error)
	GetVisibleTo(userID uint) ([]models.Article, error)
	GetByStatus(status string) ([]models.Article, error)
	Review(id uint, status string, reviewerID uint, comments string, now time.Time) (*models.Article, error)
	CountByStatus(status string) (int64, error)
}

// CommentRepository defines the interface for comment moderation and listing
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id uint) (*models.Comment, error)
	GetApprovedForNews(newsID uint) ([]models.Comment, error)
	GetApprovedForEvent(eventID uint) ([]models.Comment, error)
	GetApprovedForArticle(articleID uint) ([]models.Comment, error)
	Approve(id uint) (*models.Comment, error)
	Delete(id uint) (bool, error)
}

// NotificationRepository defines the interface for in-app notifications
type NotificationRepository interface {
	Create(notification *models.Notification) error
	CreateBatch(notifications []models.Notification) error
	ListForUser(userID uint, limit int) ([]models.Notification, error)
	MarkRead(id, userID uint) (bool, error)
	MarkAllRead(userID uint) (int64, error)
	Delete(id, userID uint) (bool, error)
	CountUnread(userID uint) (int64, error)
}

// StatsRepository aggregates dashboard counters
type StatsRepository interface {
	Dashboard() (*models.DashboardStats, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	News         NewsRepository
	Event        EventRepository
	Article      ArticleRepository
	Comment      CommentRepository
	Notification NotificationRepository
	Stats        StatsRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		News:         NewNewsRepository(db),
		Event:        NewEventRepository(db),
		Article:      NewArticleRepository(db),
		Comment:      NewCommentRepository(db),
		Notification: NewNotificationRepository(db),
		Stats:        NewStatsRepository(db),
	}
}
