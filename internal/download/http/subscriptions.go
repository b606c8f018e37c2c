package http

import (
	"net/http"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// SubscriptionsHandler serves subscription status and admin grants.
type SubscriptionsHandler struct {
	SubscriptionService *service.SubscriptionService
}

// HandleGet handles GET /v1/subscriptions/{userId}
//
//	@Summary		Subscription Status
//	@Description	Reports whether the user may download now, and the stored subscription if any.
//	@Description	A subscription found past its end date is marked inactive by this call.
//	@Tags			Subscriptions
//	@Produce		json
//	@Param			userId	path		string								true	"User ID"
//	@Success		200		{object}	downloadsdk.SubscriptionResponse	"allowed, isAdmin, subscription"
//	@Failure		500		{object}	httpx.ErrorResponse				"error, error_description"
//	@Router			/v1/subscriptions/{userId} [get].
func (h *SubscriptionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := r.PathValue("userId")

	status, err := h.SubscriptionService.Status(ctx, userID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, downloadsdk.SubscriptionResponse{
		UserID:       userID,
		Allowed:      status.Allowed,
		IsAdmin:      status.IsAdmin,
		Subscription: toSubscription(status.Subscription),
	})
}

// HandlePut handles PUT /v1/subscriptions/{userId}
//
//	@Summary		Grant Subscription
//	@Description	Activates a plan for the user starting now, replacing any previous subscription.
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string									true	"User ID"
//	@Param			request	body		downloadsdk.GrantSubscriptionRequest	true	"Plan to grant"
//	@Success		200		{object}	downloadsdk.SubscriptionResponse		"allowed, subscription"
//	@Failure		400		{object}	httpx.ErrorResponse					"invalid_request or unknown_plan"
//	@Failure		401		{object}	httpx.ErrorResponse					"error, error_description"
//	@Failure		403		{object}	httpx.ErrorResponse					"insufficient_scope"
//	@Failure		500		{object}	httpx.ErrorResponse					"error, error_description"
//	@Router			/v1/subscriptions/{userId} [put].
func (h *SubscriptionsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := r.PathValue("userId")

	var req downloadsdk.GrantSubscriptionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, "Invalid JSON in request body")
		return
	}

	sub, err := h.SubscriptionService.Grant(ctx, userID, req.PlanID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, downloadsdk.SubscriptionResponse{
		UserID:       userID,
		Allowed:      true,
		Subscription: toSubscription(&sub),
	})
}

func toSubscription(s *domain.Subscription) *downloadsdk.Subscription {
	if s == nil {
		return nil
	}
	return &downloadsdk.Subscription{
		PlanID:    s.PlanID,
		StartDate: s.StartDate.UTC().Format(time.RFC3339),
		EndDate:   s.EndDate.UTC().Format(time.RFC3339),
		Active:    s.Active,
	}
}
