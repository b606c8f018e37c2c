package sqlite

import (
	"context"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite/gen"
)

type profilesRepo struct {
	q *gen.Queries
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	row, err := r.q.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return domain.Profile{
		UserID:    row.UserID,
		IsAdmin:   row.IsAdmin,
		CreatedAt: fromMillis(row.CreatedAt),
		UpdatedAt: fromMillis(row.UpdatedAt),
	}, nil
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) error {
	return r.q.UpsertProfile(ctx, gen.UpsertProfileParams{
		UserID:    p.UserID,
		IsAdmin:   p.IsAdmin,
		CreatedAt: toMillis(p.CreatedAt),
		UpdatedAt: toMillis(p.UpdatedAt),
	})
}
