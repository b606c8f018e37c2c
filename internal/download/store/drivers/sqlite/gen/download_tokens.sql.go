// Hand-written in sqlc's output layout from ../queries/download_tokens.sql.
// Numbered ?N placeholders let one argument bind in several places.

package gen

import (
	"context"
)

const createDownloadToken = `-- name: CreateDownloadToken :execrows
INSERT INTO download_tokens (
    token_hash, user_id, content_id, content_type, stream_url, title, expires_at, used, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
ON CONFLICT (token_hash) DO NOTHING
`

type CreateDownloadTokenParams struct {
	TokenHash   string
	UserID      string
	ContentID   string
	ContentType string
	StreamUrl   string
	Title       string
	ExpiresAt   int64
	CreatedAt   int64
}

func (q *Queries) CreateDownloadToken(ctx context.Context, arg CreateDownloadTokenParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createDownloadToken,
		arg.TokenHash,
		arg.UserID,
		arg.ContentID,
		arg.ContentType,
		arg.StreamUrl,
		arg.Title,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteDownloadToken = `-- name: DeleteDownloadToken :exec
DELETE FROM download_tokens
WHERE token_hash = ?
`

func (q *Queries) DeleteDownloadToken(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, deleteDownloadToken, tokenHash)
	return err
}

const deleteStaleDownloadTokens = `-- name: DeleteStaleDownloadTokens :execrows
DELETE FROM download_tokens
WHERE used = 1 OR expires_at <= ?
`

func (q *Queries) DeleteStaleDownloadTokens(ctx context.Context, expiresAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteStaleDownloadTokens, expiresAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const downloadTokenExists = `-- name: DownloadTokenExists :one
SELECT EXISTS (SELECT 1 FROM download_tokens WHERE token_hash = ?)
`

func (q *Queries) DownloadTokenExists(ctx context.Context, tokenHash string) (int64, error) {
	row := q.db.QueryRowContext(ctx, downloadTokenExists, tokenHash)
	var column_1 int64
	err := row.Scan(&column_1)
	return column_1, err
}

const getDownloadToken = `-- name: GetDownloadToken :one
SELECT token_hash, user_id, content_id, content_type, stream_url, title, expires_at, used, used_at, created_at
FROM download_tokens
WHERE token_hash = ?
`

func (q *Queries) GetDownloadToken(ctx context.Context, tokenHash string) (DownloadToken, error) {
	row := q.db.QueryRowContext(ctx, getDownloadToken, tokenHash)
	var i DownloadToken
	err := row.Scan(
		&i.TokenHash,
		&i.UserID,
		&i.ContentID,
		&i.ContentType,
		&i.StreamUrl,
		&i.Title,
		&i.ExpiresAt,
		&i.Used,
		&i.UsedAt,
		&i.CreatedAt,
	)
	return i, err
}

const markDownloadTokenUsed = `-- name: MarkDownloadTokenUsed :execrows
UPDATE download_tokens
SET used = 1, used_at = ?1
WHERE token_hash = ?2 AND used = 0 AND expires_at > ?1
`

type MarkDownloadTokenUsedParams struct {
	Now       int64
	TokenHash string
}

func (q *Queries) MarkDownloadTokenUsed(ctx context.Context, arg MarkDownloadTokenUsedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markDownloadTokenUsed, arg.Now, arg.TokenHash)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
