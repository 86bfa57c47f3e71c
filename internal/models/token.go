package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is one issued refresh credential.
// Only the sha256 fingerprint of the secret is stored, never the secret itself.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time // nil while the token is active
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the token may still validate a secret at the given time
func (t RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && t.ExpiresAt.After(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by AuthService on signup, login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
