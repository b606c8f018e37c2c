package service

import (
	"errors"
	"time"
)

var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrSubscriptionRequired = errors.New("subscription_required")
	ErrAccessDenied         = errors.New("access_denied")
	ErrUnknownPlan          = errors.New("unknown_plan")

	ErrInvalidToken     = errors.New("invalid_token")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenAlreadyUsed = errors.New("token_already_used")

	ErrUpstreamFetchFailed    = errors.New("upstream_fetch_failed")
	ErrEntitlementCheckFailed = errors.New("entitlement_check_failed")
	ErrStorageUnavailable     = errors.New("storage_unavailable")
)

// clock returns now unless a service overrides it for tests.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
