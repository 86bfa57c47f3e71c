package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chatkaro/server/internal/apperrors"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/models"
	"github.com/chatkaro/server/internal/repository"
)

const (
	defaultAlg              = "HS256"
	defaultAccessTokenTTL   = 15 * time.Minute
	defaultRefreshTokenTTL  = 30 * 24 * time.Hour
	defaultRefreshSecretLen = 32

	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"

	accessHeaderName = "Authorization"
	accessAuthScheme = "Bearer"
)

type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then HS256 is used
	Alg string

	// Optional issuer claim
	// When set it is written on encode and required on decode
	Issuer string

	// Access and refresh token lifetimes
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Raw refresh secret length in bytes
	RefreshSecretLen int

	// Hasher to use during registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Send refresh cookie with the Secure flag
	// Should be on everywhere except local dev
	CookieSecure bool

	Logger logger.Logger
}

// Auth service: orchestrates signup, login, refresh, logout and identity
// resolution over the codec, the refresh store and the user repository
type AuthService struct {
	codec   *AccessCodec
	refresh *RefreshStore
	hasher  PasswordHasher
	storage repository.Storage
	logger  logger.Logger

	// Hash compared against on login when the email is unknown, so that
	// "no such user" and "wrong password" cost the same
	dummyHash string

	cookieSecure bool
}

func NewService(cfg Config, storage repository.Storage) (*AuthService, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultAlg
	}
	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)
	if cfg.RefreshSecretLen == 0 {
		cfg.RefreshSecretLen = defaultRefreshSecretLen
	}
	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	codec, err := NewAccessCodec(cfg.SecretKey, cfg.Alg, cfg.AccessTTL, cfg.Issuer)
	if err != nil {
		return nil, err
	}

	dummyHash, err := cfg.Hasher.Hash("just-a-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is not usable. Err: %w", err)
	}

	return &AuthService{
		codec:        codec,
		refresh:      NewRefreshStore(cfg.RefreshSecretLen, cfg.RefreshTTL, storage, cfg.Logger),
		hasher:       cfg.Hasher,
		storage:      storage,
		logger:       cfg.Logger,
		dummyHash:    dummyHash,
		cookieSecure: cfg.CookieSecure,
	}, nil
}

// Signup registers a new user and logs it in
func (s *AuthService) Signup(ctx context.Context, email string, name string, password string) (models.User, models.TokenPair, error) {
	var user models.User

	// Pre-check is a latency optimization: the unique constraint on email
	// is the final authority and maps to the same error
	_, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return user, models.TokenPair{}, apperrors.ErrDuplicateEmail
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, models.TokenPair{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, email, name, hash)
	if err != nil {
		return user, models.TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return user, pair, err
	}

	s.logger.Debug("user signed up", "user_id", user.ID)
	return user, pair, nil
}

// Login authenticates the user by email and password.
// Unknown email and wrong password are indistinguishable by both the error
// and the response latency
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Burn a bcrypt compare anyway to keep timing flat
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.User{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return models.User{}, pair, err
	}

	return user, pair, nil
}

// Refresh rotates the presented refresh secret and issues a new access token
// bound to the owning user
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string) (models.TokenPair, error) {
	issued, record, err := s.refresh.Rotate(ctx, refreshSecret)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, record.UserID)
	if err != nil {
		// User vanished between issue and rotate
		return models.TokenPair{}, err
	}

	access, err := s.codec.Encode(user.ID.String(), time.Now(), nil)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: issued}, nil
}

// Logout revokes every active refresh token of the user and returns the count
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) (int64, error) {
	revoked, err := s.refresh.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("user logged out", "user_id", userID, "tokens_revoked", revoked)
	return revoked, nil
}

// CurrentUser resolves a presented access token to a user identity.
// This is the per request hot path: it never touches the refresh store
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (models.User, error) {
	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		return models.User{}, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: malformed subject", apperrors.ErrInvalidToken)
	}

	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	access, err := s.codec.Encode(user.ID.String(), time.Now(), nil)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, _, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// Transport helpers below are the boundary the request layer hooks into.
// The access token travels in the Authorization header or response body,
// the refresh secret only ever in an http-only cookie scoped to the auth path.

// SetRefreshCookie stores the refresh secret on the client
func (s *AuthService) SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh.Value,
		Path:     refreshCookiePath,
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshCookie instructs the client to drop the refresh secret
func (s *AuthService) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadRefresh extracts the refresh secret from the request cookie
func (s *AuthService) ReadRefresh(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("%w: refresh cookie missing", apperrors.ErrRefreshTokenInvalid)
	}
	return cookie.Value, nil
}

// UserFromRequest resolves the bearer access token from the request header
func (s *AuthService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(accessHeaderName)

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != accessAuthScheme {
		return models.User{}, fmt.Errorf("%w: bearer token missing", apperrors.ErrInvalidToken)
	}

	return s.CurrentUser(ctx, token)
}
