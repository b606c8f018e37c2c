package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
)

type subscriptionsRepo struct {
	client *goredis.Client
	keys   keyspace
}

func (r *subscriptionsRepo) GetSubscription(ctx context.Context, userID string) (domain.Subscription, error) {
	data, err := r.client.HGetAll(ctx, r.keys.subscription(userID)).Result()
	if err != nil {
		return domain.Subscription{}, err
	}
	if len(data) == 0 {
		return domain.Subscription{}, store.ErrNotFound
	}
	return domain.Subscription{
		UserID:    userID,
		PlanID:    data["plan_id"],
		StartDate: parseMillis(data["start_date"]),
		EndDate:   parseMillis(data["end_date"]),
		Active:    data["active"] == "1",
		UpdatedAt: parseMillis(data["updated_at"]),
	}, nil
}

func (r *subscriptionsRepo) UpsertSubscription(ctx context.Context, s domain.Subscription) error {
	key := r.keys.subscription(s.UserID)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"plan_id", s.PlanID,
			"start_date", millis(s.StartDate),
			"end_date", millis(s.EndDate),
			"active", boolField(s.Active),
			"updated_at", millis(s.UpdatedAt),
		)
		if s.Active {
			pipe.ZAdd(ctx, r.keys.activeSubscriptions(), goredis.Z{
				Score:  float64(s.EndDate.UnixMilli()),
				Member: s.UserID,
			})
		} else {
			pipe.ZRem(ctx, r.keys.activeSubscriptions(), s.UserID)
		}
		return nil
	})
	return err
}

func (r *subscriptionsRepo) DeactivateSubscription(ctx context.Context, userID string, now time.Time) error {
	res, err := deactivateScript.Run(ctx, r.client,
		[]string{r.keys.subscription(userID), r.keys.activeSubscriptions()},
		millis(now), userID,
	).Int64()
	if err != nil {
		return err
	}
	if res < 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *subscriptionsRepo) DeactivateExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	return deactivateExpiredScript.Run(ctx, r.client,
		[]string{r.keys.activeSubscriptions()},
		millis(now), r.keys.subscription(""),
	).Int64()
}
