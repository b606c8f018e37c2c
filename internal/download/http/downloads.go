package http

import (
	"net/http"
	"time"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// DownloadsHandler issues download tokens.
type DownloadsHandler struct {
	DownloadService *service.DownloadService

	// RequireSubject rejects requests whose bearer subject differs from the
	// body userId. Set when authentication is enabled.
	RequireSubject bool
}

// ServeHTTP godoc
//
//	@Summary		Authorize Download
//	@Description	Checks the user's subscription and issues a single-use download link valid for one hour.
//	@Description	Administrators are authorized without a subscription.
//	@Tags			Downloads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		downloadsdk.DownloadRequest		true	"Title to download"
//	@Success		200		{object}	downloadsdk.DownloadResponse	"downloadUrl, token, expiresAt"
//	@Failure		400		{object}	httpx.ErrorResponse				"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse				"error, error_description"
//	@Failure		403		{object}	httpx.ErrorResponse				"subscription_required with requiresSubscription=true, or access_denied"
//	@Failure		429		{object}	httpx.ErrorResponse				"error, error_description"
//	@Failure		500		{object}	httpx.ErrorResponse				"error, error_description"
//	@Router			/v1/downloads [post].
func (h *DownloadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req downloadsdk.DownloadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, "Invalid JSON in request body")
		return
	}

	if h.RequireSubject {
		if sub, ok := httpx.UserIDFromContext(ctx); !ok || sub != req.UserID {
			log.Warn("download requested for another user", "subject", sub, "user_id", req.UserID)
			writeServiceError(w, log, service.ErrAccessDenied)
			return
		}
	}

	auth, err := h.DownloadService.AuthorizeDownload(ctx, service.DownloadRequest{
		UserID:      req.UserID,
		ContentID:   req.ContentID,
		ContentType: req.ContentType,
		StreamURL:   req.StreamURL,
		Title:       req.Title,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	message := "Download authorized"
	if auth.IsAdmin {
		message = "Download authorized (Admin)"
	}
	httpx.WriteJSON(w, http.StatusOK, downloadsdk.DownloadResponse{
		Success:     true,
		DownloadURL: auth.DownloadURL,
		Token:       auth.Token,
		ExpiresAt:   auth.ExpiresAt.UTC().Format(time.RFC3339),
		Message:     message,
	})
}
