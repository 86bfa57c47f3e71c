package apperrors

import (
	"errors"
)

var (
	// Login with unknown email or wrong password
	// Deliberately one error for both cases
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrDuplicateEmail = errors.New("email already registered")

	// Access token is malformed, expired, has wrong signature or wrong type
	// All collapsed into one error so responses never tell why the token failed
	ErrInvalidToken = errors.New("invalid or expired token")

	// Refresh token not found, revoked or expired
	// Same error for all three causes
	ErrRefreshTokenInvalid = errors.New("invalid or expired refresh token")

	ErrUserNotFound = errors.New("user not found")
)
