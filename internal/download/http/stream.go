package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

type StreamHandler struct {
	RedemptionService *service.RedemptionService
}

// ServeHTTP godoc
//
//	@Summary		Redeem Download Token
//	@Description	Spends the token and relays the film from its origin as an attachment.
//	@Description	The token is spent before the origin is contacted, so an upstream failure still consumes it.
//	@Tags			Downloads
//	@Produce		octet-stream
//	@Param			token	query		string				true	"Download token"
//	@Success		200		{file}		binary				"media bytes"
//	@Failure		400		{object}	httpx.ErrorResponse	"missing token"
//	@Failure		401		{object}	httpx.ErrorResponse	"invalid_token, token_expired or token_already_used"
//	@Failure		500		{object}	httpx.ErrorResponse	"upstream_fetch_failed or server_error"
//	@Router			/v1/downloads/stream [get].
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, "Token is required")
		return
	}

	dl, err := h.RedemptionService.Stream(ctx, token)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	defer dl.Media.Body.Close()

	header := w.Header()
	header.Set("Content-Type", dl.Media.ContentType)
	header.Set("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	httpx.NoCache(w)
	if dl.Media.ContentLength >= 0 {
		header.Set("Content-Length", strconv.FormatInt(dl.Media.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, dl.Media.Body)
	if err != nil {
		// Headers are already sent, so the client just sees a short body.
		if ctx.Err() == nil {
			log.Warn("media relay interrupted", slog.Int64("bytes", n), slog.Any("error", err))
		}
		return
	}
	log.Info("media relayed", slog.String("content_id", dl.Token.ContentID), slog.Int64("bytes", n))
}
