package http

import (
	"net/http"
	"time"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

type ProfilesHandler struct {
	SubscriptionService *service.SubscriptionService
}

// ServeHTTP godoc
//
//	@Summary		Set Administrator Flag
//	@Description	Creates or updates the user's profile. Administrators may download without a subscription.
//	@Tags			Profiles
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string						true	"User ID"
//	@Param			request	body		downloadsdk.ProfileRequest	true	"Admin flag"
//	@Success		200		{object}	downloadsdk.ProfileResponse	"userId, isAdmin"
//	@Failure		400		{object}	httpx.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse			"error, error_description"
//	@Failure		403		{object}	httpx.ErrorResponse			"insufficient_scope"
//	@Failure		500		{object}	httpx.ErrorResponse			"error, error_description"
//	@Router			/v1/profiles/{userId} [put].
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req downloadsdk.ProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, "Invalid JSON in request body")
		return
	}

	p, err := h.SubscriptionService.SetAdmin(ctx, r.PathValue("userId"), req.IsAdmin)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, downloadsdk.ProfileResponse{
		UserID:    p.UserID,
		IsAdmin:   p.IsAdmin,
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	})
}
