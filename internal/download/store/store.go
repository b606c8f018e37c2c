package store

import (
	"context"
	"errors"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a conditional write whose precondition no longer
	// holds, e.g. marking a token used that another request already spent.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface implemented by the sqlite and redis
// drivers. Every mutation is a single-key atomic operation; there are no
// multi-key transactions.
type Store interface {
	Profiles() Profiles
	Subscriptions() Subscriptions
	DownloadTokens() DownloadTokens

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

type Profiles interface {
	// GetProfile returns ErrNotFound when the user has no profile.
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)

	// UpsertProfile creates or replaces the profile, bumping updated_at.
	UpsertProfile(ctx context.Context, p domain.Profile) error
}

type Subscriptions interface {
	// GetSubscription returns ErrNotFound when the user never subscribed.
	GetSubscription(ctx context.Context, userID string) (domain.Subscription, error)

	// UpsertSubscription creates or replaces the user's subscription.
	UpsertSubscription(ctx context.Context, s domain.Subscription) error

	// DeactivateSubscription sets active=false. Returns ErrNotFound if the
	// user has no subscription.
	DeactivateSubscription(ctx context.Context, userID string, now time.Time) error

	// DeactivateExpiredSubscriptions flips every active subscription whose end
	// is at or before now and returns how many changed.
	DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

type DownloadTokens interface {
	// CreateDownloadToken inserts a new record keyed by TokenHash.
	// Returns ErrAlreadyExists on a hash collision.
	CreateDownloadToken(ctx context.Context, t domain.DownloadToken) error

	// GetDownloadToken returns the record for hash or ErrNotFound.
	GetDownloadToken(ctx context.Context, hash string) (domain.DownloadToken, error)

	// MarkDownloadTokenUsed atomically sets used=true iff the record exists,
	// is unused and now is before its expiry. Returns ErrNotFound if the
	// record is gone and ErrConflict if it is used or expired.
	MarkDownloadTokenUsed(ctx context.Context, hash string, now time.Time) error

	// DeleteDownloadToken removes the record. Deleting a missing record is
	// not an error.
	DeleteDownloadToken(ctx context.Context, hash string) error

	// DeleteStaleDownloadTokens removes every record that is used or whose
	// expiry is at or before now, returning the count.
	DeleteStaleDownloadTokens(ctx context.Context, now time.Time) (int64, error)
}
