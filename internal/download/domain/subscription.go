package domain

import "time"

// Subscription is keyed by user id. Records are created by the payment flow
// (or an admin grant) and only ever flipped to inactive, never deleted.
type Subscription struct {
	UserID    string
	PlanID    string
	StartDate time.Time
	EndDate   time.Time
	Active    bool
	UpdatedAt time.Time
}

// UsableAt reports whether the subscription grants access at now.
func (s Subscription) UsableAt(now time.Time) bool {
	return s.Active && s.EndDate.After(now)
}

// NeedsDeactivation reports whether the record is still flagged active but
// has run out, so the flag should be corrected.
func (s Subscription) NeedsDeactivation(now time.Time) bool {
	return s.Active && !s.EndDate.After(now)
}
