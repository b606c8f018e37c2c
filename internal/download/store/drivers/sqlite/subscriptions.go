package sqlite

import (
	"context"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite/gen"
)

type subscriptionsRepo struct {
	q *gen.Queries
}

func (r *subscriptionsRepo) GetSubscription(ctx context.Context, userID string) (domain.Subscription, error) {
	row, err := r.q.GetSubscription(ctx, userID)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	return domain.Subscription{
		UserID:    row.UserID,
		PlanID:    row.PlanID,
		StartDate: fromMillis(row.StartDate),
		EndDate:   fromMillis(row.EndDate),
		Active:    row.Active,
		UpdatedAt: fromMillis(row.UpdatedAt),
	}, nil
}

func (r *subscriptionsRepo) UpsertSubscription(ctx context.Context, s domain.Subscription) error {
	return r.q.UpsertSubscription(ctx, gen.UpsertSubscriptionParams{
		UserID:    s.UserID,
		PlanID:    s.PlanID,
		StartDate: toMillis(s.StartDate),
		EndDate:   toMillis(s.EndDate),
		Active:    s.Active,
		UpdatedAt: toMillis(s.UpdatedAt),
	})
}

func (r *subscriptionsRepo) DeactivateSubscription(ctx context.Context, userID string, now time.Time) error {
	n, err := r.q.DeactivateSubscription(ctx, gen.DeactivateSubscriptionParams{
		UpdatedAt: toMillis(now),
		UserID:    userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *subscriptionsRepo) DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeactivateExpiredSubscriptions(ctx, toMillis(now))
}
