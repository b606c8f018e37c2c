package downloadsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error codes returned in the "error" field.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeSubscriptionRequired = "subscription_required"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeTokenExpired         = "token_expired"
	ErrorCodeTokenAlreadyUsed     = "token_already_used"
	ErrorCodeUpstreamFetchFailed  = "upstream_fetch_failed"
	ErrorCodeServerError          = "server_error"
	ErrorCodeUnknownPlan          = "unknown_plan"
	ErrorCodeInsufficientScope    = "insufficient_scope"
	ErrorCodeRateLimited          = "rate_limit_exceeded"
)

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode           int    `json:"-"`
	Code                 string `json:"error"`
	Description          string `json:"error_description,omitempty"`
	SubscriptionRequired bool   `json:"requiresSubscription,omitempty"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Description, e.StatusCode)
}

// RequiresSubscription reports whether the user must buy a plan first.
func (e *APIError) RequiresSubscription() bool {
	return e.SubscriptionRequired || e.Code == ErrorCodeSubscriptionRequired
}

// TokenRejected reports whether a download token was unknown, expired or
// already spent. A new token must be requested.
func (e *APIError) TokenRejected() bool {
	switch e.Code {
	case ErrorCodeInvalidToken, ErrorCodeTokenExpired, ErrorCodeTokenAlreadyUsed:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// parseErrorResponse builds an APIError from a failed response body. Bodies
// that are not JSON keep their text as the description.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = ErrorCodeServerError
		if resp.StatusCode < http.StatusInternalServerError {
			apiErr.Code = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		}
		apiErr.Description = strings.TrimSpace(string(body))
	}
	return apiErr
}
