package http

import (
	"context"
	"net/http"
	"time"

	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Reports whether the token store is reachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	downloadsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	downloadsdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &downloadsdk.HealthChecks{Store: "ok"}
		status, code := "ok", http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			checks.Store = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, downloadsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
