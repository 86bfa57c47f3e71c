package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chatkaro/server/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrDuplicateEmail
	CreateUser(ctx context.Context, email string, name string, hashedPassword string) (models.User, error)

	// Get user by id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
// Revocation sets revoked_at and nothing else: dead records stay around for
// replay auditing until DeleteExpired garbage collects them
type RefreshTokenRepo interface {
	// Persist new token record
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the unique record matching the hash that is not revoked and not
	// expired at the given time, or apperrors.ErrRefreshTokenInvalid
	GetActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error)

	// Return the record matching the hash regardless of its state
	// Needed to tell a replayed (already revoked) token from an unknown one
	Get(ctx context.Context, tokenHash string) (models.RefreshToken, error)

	// Set revoked_at on the active record matching the hash and return it.
	// Exactly one caller wins when the same hash is consumed concurrently;
	// everyone else gets apperrors.ErrRefreshTokenInvalid
	RevokeActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error)

	// Revoke record by id
	// Idempotent: revoking a revoked or missing record is a no-op
	Revoke(ctx context.Context, tokenID uuid.UUID, now time.Time) error

	// Revoke every active record of the user, return how many were revoked
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	// Delete records that expired before the given time, return how many
	// were deleted. Active records are never touched
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Storage combines repositories sharing one underlying connection
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo

	// Run fn inside a database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
