package sqlite

import (
	"context"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite/gen"
)

type downloadTokensRepo struct {
	q *gen.Queries
}

func (r *downloadTokensRepo) CreateDownloadToken(ctx context.Context, t domain.DownloadToken) error {
	n, err := r.q.CreateDownloadToken(ctx, gen.CreateDownloadTokenParams{
		TokenHash:   t.TokenHash,
		UserID:      t.UserID,
		ContentID:   t.ContentID,
		ContentType: t.ContentType,
		StreamUrl:   t.StreamURL,
		Title:       t.Title,
		ExpiresAt:   toMillis(t.ExpiresAt),
		CreatedAt:   toMillis(t.CreatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *downloadTokensRepo) GetDownloadToken(ctx context.Context, hash string) (domain.DownloadToken, error) {
	row, err := r.q.GetDownloadToken(ctx, hash)
	if err != nil {
		return domain.DownloadToken{}, mapNotFound(err)
	}
	return domain.DownloadToken{
		TokenHash:   row.TokenHash,
		UserID:      row.UserID,
		ContentID:   row.ContentID,
		ContentType: row.ContentType,
		StreamURL:   row.StreamUrl,
		Title:       row.Title,
		ExpiresAt:   fromMillis(row.ExpiresAt),
		Used:        row.Used,
		UsedAt:      mapNullMillisPtr(row.UsedAt),
		CreatedAt:   fromMillis(row.CreatedAt),
	}, nil
}

// MarkDownloadTokenUsed relies on the WHERE clause of a single UPDATE for
// atomicity. The follow-up lookup only classifies a lost race.
func (r *downloadTokensRepo) MarkDownloadTokenUsed(ctx context.Context, hash string, now time.Time) error {
	n, err := r.q.MarkDownloadTokenUsed(ctx, gen.MarkDownloadTokenUsedParams{
		Now:       toMillis(now),
		TokenHash: hash,
	})
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	exists, err := r.q.DownloadTokenExists(ctx, hash)
	if err != nil {
		return err
	}
	if exists == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (r *downloadTokensRepo) DeleteDownloadToken(ctx context.Context, hash string) error {
	return r.q.DeleteDownloadToken(ctx, hash)
}

func (r *downloadTokensRepo) DeleteStaleDownloadTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteStaleDownloadTokens(ctx, toMillis(now))
}
