package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chatkaro/server/internal/apperrors"
	"github.com/chatkaro/server/internal/models"
)

// Discriminator claim value fixing the intended use of a token
// Stops any other signed artifact from being replayed as an access token
const tokenTypeAccess = "access"

type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// AccessCodec encodes and decodes short lived signed access tokens.
// Validity is computable from the token alone: no storage lookup involved
type AccessCodec struct {
	key    []byte
	alg    jwt.SigningMethod
	ttl    time.Duration
	issuer string
}

func NewAccessCodec(secretKey string, alg string, ttl time.Duration, issuer string) (*AccessCodec, error) {
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("unknown signing method %q", alg)
	}

	return &AccessCodec{
		key:    []byte(secretKey),
		alg:    method,
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

// Encode issues a signed token asserting the subject identity.
// Extra claims are merged into the payload and may be nil.
// Timestamps are truncated to whole seconds
func (c *AccessCodec) Encode(subject string, now time.Time, extra map[string]any) (models.IssuedToken, error) {
	now = now.Truncate(time.Second)
	expiresAt := now.Add(c.ttl)

	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"typ": tokenTypeAccess,
	}
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}
	for k, v := range extra {
		claims[k] = v
	}

	value, err := jwt.NewWithClaims(c.alg, claims).SignedString(c.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Decode verifies signature, expiry, issuer and token type.
// Every failure collapses into apperrors.ErrInvalidToken so callers can not
// tell why a token was rejected
func (c *AccessCodec) Decode(tokenString string) (AccessClaims, error) {
	claims := &AccessClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		opts...,
	)

	switch {
	case err != nil:
		return AccessClaims{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	case claims.Subject == "":
		return AccessClaims{}, fmt.Errorf("%w: subject missing", apperrors.ErrInvalidToken)
	case claims.TokenType != tokenTypeAccess:
		return AccessClaims{}, fmt.Errorf("%w: wrong token type", apperrors.ErrInvalidToken)
	}

	return *claims, nil
}
