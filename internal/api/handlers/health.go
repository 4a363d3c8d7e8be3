package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/minrei/pkg/database"
)

// HealthChecker reports backing-store health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
}

// HealthHandler returns server and database health status
// GET /health
func HealthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"status":  "ok",
			"service": "minrei-api",
		}

		status := http.StatusOK
		if db != nil {
			dbStatus := db.HealthCheck(r.Context())
			payload["database"] = dbStatus
			if !dbStatus.Healthy {
				payload["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		respondJSON(w, status, payload)
	}
}
