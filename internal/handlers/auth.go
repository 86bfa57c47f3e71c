package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/chatkaro/server/internal/apperrors"
	"github.com/chatkaro/server/internal/handlers/render"
	"github.com/chatkaro/server/internal/handlers/userctx"
	"github.com/chatkaro/server/internal/logger"
	"github.com/chatkaro/server/internal/models"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTokenResponse(pair models.TokenPair) TokenResponse {
	return TokenResponse{AccessToken: pair.Access.Value, TokenType: "bearer"}
}

func newUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func handleSignup(auth authService, l logger.Logger) http.Handler {
	type SignupRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Name     string `json:"name" validate:"required,min=1,max=100"`
		Password string `json:"password" validate:"required,min=8,max=128"`
	}
	type SignupResponse struct {
		User  UserResponse  `json:"user"`
		Token TokenResponse `json:"token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[SignupRequest](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Signup(r.Context(), data.Email, data.Name, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrDuplicateEmail):
				render.ServiceError(w, "Email already registered", http.StatusConflict)
			default:
				l.Error("signup failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetRefreshCookie(w, pair.Refresh)
		render.JSONWithStatus(w, SignupResponse{
			User:  newUserResponse(user),
			Token: newTokenResponse(pair),
		}, http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[LoginRequest](w, r)
		if err != nil {
			return
		}

		_, pair, err := auth.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetRefreshCookie(w, pair.Refresh)
		render.JSON(w, newTokenResponse(pair))
	})
}

func handleTokenRefresh(auth authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := auth.ReadRefresh(r)
		if err != nil {
			render.ServiceError(w, "Missing refresh token", http.StatusUnauthorized)
			return
		}

		pair, err := auth.Refresh(r.Context(), refresh)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenInvalid),
				errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		auth.SetRefreshCookie(w, pair.Refresh)
		render.JSON(w, newTokenResponse(pair))
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type LogoutResponse struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := auth.Logout(r.Context(), user.ID); err != nil {
			l.Error("logout failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		auth.ClearRefreshCookie(w)
		render.JSON(w, LogoutResponse{Message: "Logged out successfully"})
	})
}

func handleMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}
