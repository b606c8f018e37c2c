// Hand-written in sqlc's output layout from ../queries/subscriptions.sql.
// Numbered ?N placeholders let one argument bind in several places.

package gen

import (
	"context"
)

const deactivateExpiredSubscriptions = `-- name: DeactivateExpiredSubscriptions :execrows
UPDATE subscriptions
SET active = 0, updated_at = ?1
WHERE active = 1 AND end_date <= ?1
`

func (q *Queries) DeactivateExpiredSubscriptions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deactivateExpiredSubscriptions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deactivateSubscription = `-- name: DeactivateSubscription :execrows
UPDATE subscriptions
SET active = 0, updated_at = ?
WHERE user_id = ?
`

type DeactivateSubscriptionParams struct {
	UpdatedAt int64
	UserID    string
}

func (q *Queries) DeactivateSubscription(ctx context.Context, arg DeactivateSubscriptionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deactivateSubscription, arg.UpdatedAt, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSubscription = `-- name: GetSubscription :one
SELECT user_id, plan_id, start_date, end_date, active, updated_at
FROM subscriptions
WHERE user_id = ?
`

func (q *Queries) GetSubscription(ctx context.Context, userID string) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, getSubscription, userID)
	var i Subscription
	err := row.Scan(
		&i.UserID,
		&i.PlanID,
		&i.StartDate,
		&i.EndDate,
		&i.Active,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertSubscription = `-- name: UpsertSubscription :exec
INSERT INTO subscriptions (user_id, plan_id, start_date, end_date, active, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    plan_id = excluded.plan_id,
    start_date = excluded.start_date,
    end_date = excluded.end_date,
    active = excluded.active,
    updated_at = excluded.updated_at
`

type UpsertSubscriptionParams struct {
	UserID    string
	PlanID    string
	StartDate int64
	EndDate   int64
	Active    bool
	UpdatedAt int64
}

func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSubscription,
		arg.UserID,
		arg.PlanID,
		arg.StartDate,
		arg.EndDate,
		arg.Active,
		arg.UpdatedAt,
	)
	return err
}
