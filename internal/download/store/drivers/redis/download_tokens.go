package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
)

type downloadTokensRepo struct {
	client *goredis.Client
	keys   keyspace
}

func (r *downloadTokensRepo) CreateDownloadToken(ctx context.Context, t domain.DownloadToken) error {
	created, err := createTokenScript.Run(ctx, r.client,
		[]string{r.keys.token(t.TokenHash), r.keys.tokenExpiry()},
		t.TokenHash,
		t.ExpiresAt.UnixMilli(),
		t.ExpiresAt.Add(tokenTTLBackstop).UnixMilli(),
		"user_id", t.UserID,
		"content_id", t.ContentID,
		"content_type", t.ContentType,
		"stream_url", t.StreamURL,
		"title", t.Title,
		"expires_at", millis(t.ExpiresAt),
		"used", "0",
		"created_at", millis(t.CreatedAt),
	).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *downloadTokensRepo) GetDownloadToken(ctx context.Context, hash string) (domain.DownloadToken, error) {
	data, err := r.client.HGetAll(ctx, r.keys.token(hash)).Result()
	if err != nil {
		return domain.DownloadToken{}, err
	}
	if len(data) == 0 {
		return domain.DownloadToken{}, store.ErrNotFound
	}

	tok := domain.DownloadToken{
		TokenHash:   hash,
		UserID:      data["user_id"],
		ContentID:   data["content_id"],
		ContentType: data["content_type"],
		StreamURL:   data["stream_url"],
		Title:       data["title"],
		ExpiresAt:   parseMillis(data["expires_at"]),
		Used:        data["used"] == "1",
		CreatedAt:   parseMillis(data["created_at"]),
	}
	if raw, ok := data["used_at"]; ok && raw != "" {
		usedAt := parseMillis(raw)
		tok.UsedAt = &usedAt
	}
	return tok, nil
}

func (r *downloadTokensRepo) MarkDownloadTokenUsed(ctx context.Context, hash string, now time.Time) error {
	res, err := markUsedScript.Run(ctx, r.client,
		[]string{r.keys.token(hash), r.keys.usedTokens()},
		millis(now), hash,
	).Int64()
	if err != nil {
		return err
	}
	switch {
	case res < 0:
		return store.ErrNotFound
	case res == 0:
		return store.ErrConflict
	}
	return nil
}

func (r *downloadTokensRepo) DeleteDownloadToken(ctx context.Context, hash string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.keys.token(hash))
		pipe.ZRem(ctx, r.keys.tokenExpiry(), hash)
		pipe.SRem(ctx, r.keys.usedTokens(), hash)
		return nil
	})
	return err
}

func (r *downloadTokensRepo) DeleteStaleDownloadTokens(ctx context.Context, now time.Time) (int64, error) {
	return sweepTokensScript.Run(ctx, r.client,
		[]string{r.keys.tokenExpiry(), r.keys.usedTokens()},
		millis(now), r.keys.tokenPrefix(),
	).Int64()
}
