package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// SubscriptionStatus combines the entitlement decision with the stored
// subscription, if any.
type SubscriptionStatus struct {
	Entitlement
	Subscription *domain.Subscription
}

type SubscriptionService struct {
	Store        store.Store
	Entitlements *EntitlementService
	Now          func() time.Time
}

func (s *SubscriptionService) Plans() []domain.Plan {
	return append([]domain.Plan(nil), domain.Plans...)
}

// Status reports whether userID may download and the subscription behind it.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (SubscriptionStatus, error) {
	ent, err := s.Entitlements.CheckEntitlement(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			return SubscriptionStatus{}, err
		}
		return SubscriptionStatus{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	status := SubscriptionStatus{Entitlement: ent}
	sub, err := s.Store.Subscriptions().GetSubscription(ctx, userID)
	switch {
	case err == nil:
		status.Subscription = &sub
	case !errors.Is(err, store.ErrNotFound):
		return SubscriptionStatus{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return status, nil
}

// Grant activates planID for userID starting now, replacing any previous
// subscription. It stands in for the payment confirmation flow.
func (s *SubscriptionService) Grant(ctx context.Context, userID, planID string) (domain.Subscription, error) {
	log := slogx.FromContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return domain.Subscription{}, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	plan, ok := domain.PlanByID(planID)
	if !ok {
		return domain.Subscription{}, ErrUnknownPlan
	}

	now := clock(s.Now)
	sub := domain.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.Add(plan.Duration),
		Active:    true,
		UpdatedAt: now,
	}
	if err := s.Store.Subscriptions().UpsertSubscription(ctx, sub); err != nil {
		log.Error("failed to store subscription", slog.String("user_id", userID), slog.Any("error", err))
		return domain.Subscription{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	log.Info("subscription granted",
		slog.String("user_id", userID),
		slog.String("plan_id", plan.ID),
		slog.Time("end_date", sub.EndDate),
	)
	return sub, nil
}

// SetAdmin creates or updates the user's profile with the given admin flag.
func (s *SubscriptionService) SetAdmin(ctx context.Context, userID string, isAdmin bool) (domain.Profile, error) {
	log := slogx.FromContext(ctx)
	if strings.TrimSpace(userID) == "" {
		return domain.Profile{}, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}

	now := clock(s.Now)
	p := domain.Profile{UserID: userID, IsAdmin: isAdmin, CreatedAt: now, UpdatedAt: now}
	if err := s.Store.Profiles().UpsertProfile(ctx, p); err != nil {
		log.Error("failed to store profile", slog.String("user_id", userID), slog.Any("error", err))
		return domain.Profile{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	stored, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	log.Info("profile updated", slog.String("user_id", userID), slog.Bool("admin", isAdmin))
	return stored, nil
}

// SeedAdmins marks each id as an administrator. Blank ids are skipped.
func (s *SubscriptionService) SeedAdmins(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := s.SetAdmin(ctx, id, true); err != nil {
			return fmt.Errorf("seed admin %q: %w", id, err)
		}
	}
	return nil
}
