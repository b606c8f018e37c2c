// Hand-written in sqlc's output layout from ../queries/profiles.sql.

package gen

import (
	"context"
)

const getProfile = `-- name: GetProfile :one
SELECT user_id, is_admin, created_at, updated_at
FROM profiles
WHERE user_id = ?
`

func (q *Queries) GetProfile(ctx context.Context, userID string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, userID)
	var i Profile
	err := row.Scan(
		&i.UserID,
		&i.IsAdmin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertProfile = `-- name: UpsertProfile :exec
INSERT INTO profiles (user_id, is_admin, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    is_admin = excluded.is_admin,
    updated_at = excluded.updated_at
`

type UpsertProfileParams struct {
	UserID    string
	IsAdmin   bool
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertProfile,
		arg.UserID,
		arg.IsAdmin,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
