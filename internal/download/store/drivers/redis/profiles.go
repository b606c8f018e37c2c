package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
)

type profilesRepo struct {
	client *goredis.Client
	keys   keyspace
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	data, err := r.client.HGetAll(ctx, r.keys.profile(userID)).Result()
	if err != nil {
		return domain.Profile{}, err
	}
	if len(data) == 0 {
		return domain.Profile{}, store.ErrNotFound
	}
	return domain.Profile{
		UserID:    userID,
		IsAdmin:   data["is_admin"] == "1",
		CreatedAt: parseMillis(data["created_at"]),
		UpdatedAt: parseMillis(data["updated_at"]),
	}, nil
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	key := r.keys.profile(p.UserID)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "created_at", millis(p.CreatedAt))
		pipe.HSet(ctx, key, "is_admin", boolField(p.IsAdmin), "updated_at", millis(p.UpdatedAt))
		return nil
	})
	return err
}
