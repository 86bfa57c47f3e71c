package middleware

import (
	"context"
	"net/http"

	"github.com/chatkaro/server/internal/handlers/render"
	"github.com/chatkaro/server/internal/handlers/userctx"
	"github.com/chatkaro/server/internal/models"
)

type authService interface {
	// Resolve the bearer access token from the request to a user
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a resolvable access token and puts
// the user into the request context for downstream handlers.
// Any auth failure maps to one generic 401: no detail leaks to the caller
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.UserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
