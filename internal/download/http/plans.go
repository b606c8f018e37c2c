package http

import (
	"net/http"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
)

type PlansHandler struct {
	SubscriptionService *service.SubscriptionService
}

// ServeHTTP godoc
//
//	@Summary		List Plans
//	@Description	Returns the subscription catalogue, shortest plan first.
//	@Tags			Subscriptions
//	@Produce		json
//	@Success		200	{object}	downloadsdk.PlansResponse	"plans"
//	@Router			/v1/plans [get].
func (h *PlansHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plans := h.SubscriptionService.Plans()
	resp := downloadsdk.PlansResponse{Plans: make([]downloadsdk.Plan, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, downloadsdk.Plan{
			ID:              p.ID,
			Name:            p.Name,
			DurationSeconds: int64(p.Duration.Seconds()),
			Price:           p.Price,
			Currency:        p.Currency,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
