package models

import "errors"

// Domain errors returned by repositories and mapped to HTTP status codes by the controllers.
var (
	ErrEventFull              = errors.New("event is full")
	ErrAlreadyRegistered      = errors.New("already registered for this event")
	ErrNotRegistered          = errors.New("not registered for this event")
	ErrRegistrationClosed     = errors.New("registration is closed for this event")
	ErrArticleAlreadyReviewed = errors.New("article has already been reviewed")
	ErrInvalidReviewStatus    = errors.New("review status must be approved or rejected")
	ErrInvalidRole            = errors.New("invalid role")
	ErrUserHasContent         = errors.New("user still owns content")
)
