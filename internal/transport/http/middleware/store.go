package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

type Readiness interface {
	Ready(ctx context.Context) error
}

// RequireStore fails fast with 503 while the store cannot be reached.
func RequireStore(store Readiness, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ready(r.Context()); err != nil {
				logger.Error("store unavailable", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Failed to connect to the database")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
