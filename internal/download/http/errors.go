package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/pkg/downloadsdk"
	"github.com/luofilm/luofilm/pkg/httpx"
)

// writeServiceError maps service errors onto the public error taxonomy.
// Anything unrecognised is a 500 with no detail.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeInvalidRequest, trimSentinel(err))
	case errors.Is(err, service.ErrSubscriptionRequired):
		httpx.WriteJSON(w, http.StatusForbidden, httpx.ErrorResponse{
			Error:                downloadsdk.ErrorCodeSubscriptionRequired,
			ErrorDescription:     "An active subscription is required to download",
			RequiresSubscription: true,
		})
	case errors.Is(err, service.ErrAccessDenied):
		httpx.WriteError(w, http.StatusForbidden, downloadsdk.ErrorCodeAccessDenied,
			"Token subject does not match the requested user")
	case errors.Is(err, service.ErrUnknownPlan):
		httpx.WriteError(w, http.StatusBadRequest, downloadsdk.ErrorCodeUnknownPlan, "Unknown plan")
	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized, downloadsdk.ErrorCodeInvalidToken, "Invalid download link")
	case errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized, downloadsdk.ErrorCodeTokenExpired, "Download link has expired")
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		httpx.WriteError(w, http.StatusUnauthorized, downloadsdk.ErrorCodeTokenAlreadyUsed, "Download link has already been used")
	case errors.Is(err, service.ErrUpstreamFetchFailed):
		httpx.WriteError(w, http.StatusInternalServerError, downloadsdk.ErrorCodeUpstreamFetchFailed, "Failed to fetch video")
	default:
		log.Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, downloadsdk.ErrorCodeServerError, "Internal server error")
	}
}

// trimSentinel drops the "invalid_request: " prefix from a wrapped error so
// only the field detail reaches the client.
func trimSentinel(err error) string {
	msg := err.Error()
	prefix := service.ErrInvalidRequest.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return "Missing required parameters"
}
