package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
)

// Health handles GET /api/health by pinging the database.
func Health(database *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  "database unreachable",
			})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": database.DriverName(),
		})
	}
}
