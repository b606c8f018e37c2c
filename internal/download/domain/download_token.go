package domain

import "time"

// DownloadToken is a single-use, time-boxed authorization to fetch one
// stream. Only the SHA-256 fingerprint of the opaque token is stored.
type DownloadToken struct {
	TokenHash   string
	UserID      string
	ContentID   string
	ContentType string
	StreamURL   string
	Title       string
	ExpiresAt   time.Time
	Used        bool
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// ExpiredAt reports whether the token is past its expiry at now. A token is
// expired from the expiry instant onwards.
func (t DownloadToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RedeemableAt reports whether the token exists in a usable state at now.
func (t DownloadToken) RedeemableAt(now time.Time) bool {
	return !t.Used && !t.ExpiredAt(now)
}

// Stale reports whether the sweeper should delete the record.
func (t DownloadToken) Stale(now time.Time) bool {
	return t.Used || t.ExpiredAt(now)
}
