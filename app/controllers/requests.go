package controllers

import "time"

// Request bodies of the JSON API. Optional fields of update requests are
// pointers so an omitted field keeps its stored value.

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Email    string `json:"email" validate:"required,email,max=200"`
	FullName string `json:"fullName" validate:"required,max=200"`
	Bio      string `json:"bio,omitempty" validate:"max=1000"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdateRequest struct {
	FullName *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=200"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Bio      *string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

type NewsRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Content     string `json:"content" validate:"required"`
	Excerpt     string `json:"excerpt,omitempty"`
	Category    string `json:"category" validate:"required,max=100"`
	IsPublished *bool  `json:"isPublished,omitempty"`
}

type NewsUpdateRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content     *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Excerpt     *string `json:"excerpt,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	IsPublished *bool   `json:"isPublished,omitempty"`
}

type EventRequest struct {
	Title                string     `json:"title" validate:"required,max=255"`
	Description          string     `json:"description" validate:"required"`
	EventDate            time.Time  `json:"eventDate" validate:"required"`
	Location             string     `json:"location" validate:"required,max=255"`
	Capacity             int        `json:"capacity" validate:"required,gt=0"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
}

type EventUpdateRequest struct {
	Title                *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description          *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	EventDate            *time.Time `json:"eventDate,omitempty"`
	Location             *string    `json:"location,omitempty" validate:"omitempty,min=1,max=255"`
	Capacity             *int       `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Status               *string    `json:"status,omitempty" validate:"omitempty,event_status"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
}

type ArticleRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Abstract string `json:"abstract,omitempty"`
}

// ReviewRequest status is checked by the handler so an unknown value maps to
// the review error instead of a generic validation failure.
type ReviewRequest struct {
	Status   string `json:"status" validate:"required"`
	Comments string `json:"comments,omitempty"`
}

type CommentRequest struct {
	Content   string `json:"content" validate:"required,max=5000"`
	NewsID    *uint  `json:"newsId,omitempty"`
	EventID   *uint  `json:"eventId,omitempty"`
	ArticleID *uint  `json:"articleId,omitempty"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type UrgentRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}
