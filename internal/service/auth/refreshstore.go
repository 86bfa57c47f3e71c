package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatkaro/server/internal/apperrors"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/models"
	"github.com/chatkaro/server/internal/repository"
)

// RefreshStore issues and rotates opaque refresh secrets.
// Only the sha256 fingerprint of a secret is ever persisted: the raw secret
// is returned to the caller exactly once and can not be recovered later
type RefreshStore struct {
	secretLen int
	ttl       time.Duration
	storage   repository.Storage
	logger    logger.Logger
}

func NewRefreshStore(secretLen int, ttl time.Duration, storage repository.Storage, l logger.Logger) *RefreshStore {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &RefreshStore{
		secretLen: secretLen,
		ttl:       ttl,
		storage:   storage,
		logger:    l,
	}
}

// Generate creates a new URL safe random secret
func (s *RefreshStore) Generate() (string, error) {
	b := make([]byte, s.secretLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error while generating refresh secret. Err: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint is the storage key of a secret.
// Unsalted fast hash is fine here: the input itself is unguessable,
// unlike a user chosen password
func (s *RefreshStore) Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Issue creates a new refresh secret for the user and persists its record
func (s *RefreshStore) Issue(ctx context.Context, userID uuid.UUID) (models.IssuedToken, models.RefreshToken, error) {
	return s.issue(ctx, s.storage, userID)
}

func (s *RefreshStore) issue(ctx context.Context, storage repository.Storage, userID uuid.UUID) (models.IssuedToken, models.RefreshToken, error) {
	secret, err := s.Generate()
	if err != nil {
		return models.IssuedToken{}, models.RefreshToken{}, err
	}

	now := time.Now().Truncate(time.Second)
	record, err := storage.Refresh().Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: s.Fingerprint(secret),
		ExpiresAt: now.Add(s.ttl),
		RevokedAt: nil,
		CreatedAt: now,
	})
	if err != nil {
		return models.IssuedToken{}, models.RefreshToken{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: secret, ExpiresAt: record.ExpiresAt}, record, nil
}

// Validate returns the record currently backing the secret.
// Never existed, revoked and expired all come back as ErrRefreshTokenInvalid
func (s *RefreshStore) Validate(ctx context.Context, secret string) (models.RefreshToken, error) {
	return s.storage.Refresh().GetActive(ctx, s.Fingerprint(secret), time.Now())
}

// Rotate consumes the presented secret and issues a fresh one for the same
// user in a single transaction. A secret survives exactly one rotation:
// presenting it again afterwards fails, which is how replays get noticed
func (s *RefreshStore) Rotate(ctx context.Context, secret string) (models.IssuedToken, models.RefreshToken, error) {
	var issued models.IssuedToken
	var record models.RefreshToken
	hash := s.Fingerprint(secret)

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		old, err := storage.Refresh().RevokeActive(ctx, hash, time.Now())
		if err != nil {
			return err
		}

		issued, record, err = s.issue(ctx, storage, old.UserID)
		return err
	})

	if errors.Is(err, apperrors.ErrRefreshTokenInvalid) {
		s.auditRotateFailure(ctx, hash)
		return issued, record, err
	}
	if err != nil {
		return issued, record, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	return issued, record, nil
}

// auditRotateFailure tells operators whether a failed rotation was a replay
// of a consumed token. The caller still gets the generic error
func (s *RefreshStore) auditRotateFailure(ctx context.Context, hash string) {
	token, err := s.storage.Refresh().Get(ctx, hash)

	switch {
	case err != nil:
		s.logger.Info("refresh rotation failed: token unknown")
	case token.RevokedAt != nil:
		s.logger.Warn("refresh token reuse detected, possible replay",
			"token_id", token.ID,
			"user_id", token.UserID,
			"revoked_at", *token.RevokedAt,
		)
	default:
		s.logger.Info("refresh rotation failed: token expired",
			"token_id", token.ID,
			"user_id", token.UserID,
		)
	}
}

// Revoke makes the record permanently unusable.
// Idempotent: revoking revoked or missing record is a no-op
func (s *RefreshStore) Revoke(ctx context.Context, tokenID uuid.UUID) error {
	return s.storage.Refresh().Revoke(ctx, tokenID, time.Now())
}

// RevokeAllForUser revokes every active record of the user in one statement
// and returns the count affected. Used for logout everywhere
func (s *RefreshStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.storage.Refresh().RevokeAllForUser(ctx, userID, time.Now())
}
