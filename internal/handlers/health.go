package handlers

import (
	"context"
	"net/http"

	"github.com/chatkaro/server/internal/handlers/render"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func handleHealth(db pinger) http.Handler {
	type HealthResponse struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			render.ServiceError(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, HealthResponse{Status: "ok"})
	})
}
