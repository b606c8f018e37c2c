package http

import (
	"net/http"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

type ValidateHandler struct {
	RedemptionService *service.RedemptionService
}

// ServeHTTP godoc
//
//	@Summary		Validate Download Token
//	@Description	Checks a download token. A successful check spends the token; it cannot be validated or streamed again.
//	@Tags			Downloads
//	@Produce		json
//	@Param			token	query		string						true	"Download token"
//	@Success		200		{object}	downloadsdk.ValidateResponse	"valid=true"
//	@Failure		400		{object}	httpx.ErrorResponse			"missing token"
//	@Failure		401		{object}	httpx.ErrorResponse			"invalid_token, token_expired or token_already_used"
//	@Failure		500		{object}	httpx.ErrorResponse			"error, error_description"
//	@Router			/v1/downloads/validate [get].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, "Token is required")
		return
	}

	if err := h.RedemptionService.Validate(ctx, token); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, downloadsdk.ValidateResponse{
		Valid:   true,
		Message: "Token is valid",
	})
}
