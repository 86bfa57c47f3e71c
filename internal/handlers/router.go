package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/chatkaro/server/internal/handlers/middleware"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	db pinger,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiauth := http.NewServeMux()

	apiauth.Handle("POST /signup", handleSignup(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiauth.Handle("GET /me", withAuth(handleMe()))

	root := http.NewServeMux()
	root.Handle("/api/v1/auth/", http.StripPrefix("/api/v1/auth", apiauth))
	root.Handle("GET /health", handleHealth(db))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user and log it in
	// Has to return apperrors.ErrDuplicateEmail if the email is taken
	Signup(ctx context.Context, email string, name string, password string) (models.User, models.TokenPair, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials for unknown email and
	// wrong password alike
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Rotate the refresh secret and issue a fresh token pair
	// Has to return apperrors.ErrRefreshTokenInvalid if the secret is not
	// usable and apperrors.ErrUserNotFound if its owner is gone
	Refresh(ctx context.Context, refreshSecret string) (models.TokenPair, error)

	// Revoke every active refresh token of the user
	Logout(ctx context.Context, userID uuid.UUID) (int64, error)

	// Resolve the bearer access token from the request to a user
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)

	// Set, read and clear the client held refresh secret
	SetRefreshCookie(w http.ResponseWriter, refresh models.IssuedToken)
	ReadRefresh(r *http.Request) (string, error)
	ClearRefreshCookie(w http.ResponseWriter)
}
