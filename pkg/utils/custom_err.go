package utils

import "errors"

var (
	ErrAuthenticationRequired     = errors.New("authentication required")
	ErrUserNotFound               = errors.New("user not found")
	ErrMalformedSubmission        = errors.New("malformed submission")
	ErrInvalidDistance            = errors.New("invalid distance")
	ErrCorruptedCoordinates       = errors.New("corrupted coordinates")
	ErrDatabaseError              = errors.New("database error")
	ErrTripNotFoundOrUnauthorized = errors.New("trip not found or unauthorized")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrTooManyAttempts    = errors.New("too many verification attempts")
	ErrSMSDelivery        = errors.New("sms delivery failed")

	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
)
