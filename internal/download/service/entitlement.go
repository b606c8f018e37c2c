package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// Entitlement is the outcome of a subscription check.
type Entitlement struct {
	Allowed bool
	IsAdmin bool
}

// EntitlementService decides whether a user may download. It is the single
// place admin status and subscription validity are evaluated.
type EntitlementService struct {
	Store store.Store
	Now   func() time.Time
}

// CheckEntitlement returns whether userID may download right now. Admins are
// allowed without a subscription. A subscription still flagged active past
// its end date is corrected to inactive as a side effect.
//
// Storage failures return ErrEntitlementCheckFailed and are never reported as
// a plain allow or deny.
func (s *EntitlementService) CheckEntitlement(ctx context.Context, userID string) (Entitlement, error) {
	log := slogx.FromContext(ctx)
	if userID == "" {
		return Entitlement{}, ErrInvalidRequest
	}
	now := clock(s.Now)

	profile, err := s.Store.Profiles().GetProfile(ctx, userID)
	switch {
	case err == nil && profile.IsAdmin:
		return Entitlement{Allowed: true, IsAdmin: true}, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		log.Error("failed to fetch profile", slog.String("user_id", userID), slog.Any("error", err))
		return Entitlement{}, fmt.Errorf("%w: %w", ErrEntitlementCheckFailed, err)
	}

	sub, err := s.Store.Subscriptions().GetSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Entitlement{}, nil
		}
		log.Error("failed to fetch subscription", slog.String("user_id", userID), slog.Any("error", err))
		return Entitlement{}, fmt.Errorf("%w: %w", ErrEntitlementCheckFailed, err)
	}

	if sub.NeedsDeactivation(now) {
		if err := s.Store.Subscriptions().DeactivateSubscription(ctx, userID, now); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to deactivate expired subscription",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			return Entitlement{}, fmt.Errorf("%w: %w", ErrEntitlementCheckFailed, err)
		}
		log.Info("subscription expired", slog.String("user_id", userID), slog.Time("end_date", sub.EndDate))
		return Entitlement{}, nil
	}

	return Entitlement{Allowed: sub.UsableAt(now)}, nil
}
