package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chatkaro/server/internal/apperrors"
	"github.com/chatkaro/server/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.RevokedAt, token.CreatedAt)
	saved, err := pgx.CollectOneRow(rows, rowToToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getActiveToken = `-- name: GetActiveToken
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
FROM refresh_tokens
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
`

// Get the unique active record for the hash
// token_hash is unique so at most one row can ever match
func (r *RefreshTokenRepo) GetActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getActiveToken, tokenHash, now)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrRefreshTokenInvalid
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const getToken = `-- name: GetToken
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
FROM refresh_tokens
WHERE token_hash = $1
`

// Get token whatever state it is in: revoked and expired included
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenHash)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrRefreshTokenInvalid
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeActiveToken = `-- name: RevokeActiveToken
UPDATE refresh_tokens
SET revoked_at = $2, updated_at = $2
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
RETURNING id, user_id, token_hash, expires_at, revoked_at, created_at, updated_at
`

// Consume the active record for the hash
// The WHERE clause makes the update conditional, so of two concurrent callers
// presenting the same hash exactly one gets the row back
func (r *RefreshTokenRepo) RevokeActive(ctx context.Context, tokenHash string, now time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, revokeActiveToken, tokenHash, now)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrRefreshTokenInvalid
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeToken
UPDATE refresh_tokens
SET revoked_at = COALESCE(revoked_at, $2), updated_at = $2
WHERE id = $1
`

// Revoke never overwrites an earlier revocation and ignores unknown ids
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenID uuid.UUID, now time.Time) error {
	_, err := r.DB.Exec(ctx, revokeToken, tokenID, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const revokeAllForUser = `-- name: RevokeAllForUser
UPDATE refresh_tokens
SET revoked_at = $2, updated_at = $2
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
`

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, revokeAllForUser, userID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const deleteExpiredTokens = `-- name: DeleteExpiredTokens
DELETE FROM refresh_tokens
WHERE expires_at < $1
`

// Garbage collect records nobody can ever use again
// Revoked but unexpired rows are kept so replays still get audited
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredTokens, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
