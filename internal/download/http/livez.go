package http

import (
	"net/http"
	"time"

	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness Probe
//	@Description	Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	downloadsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, downloadsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}
