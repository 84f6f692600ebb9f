package application

import "errors"

// Sentinel errors the driving layer maps onto response codes.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrPublicationNotFound = errors.New("publication not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrRevisionNotFound    = errors.New("revision not found")
	ErrSupergroupNotFound  = errors.New("supergroup not found")
	ErrHandleTaken         = errors.New("handle already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
)
