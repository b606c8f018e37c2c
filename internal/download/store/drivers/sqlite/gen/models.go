// Hand-written in sqlc's output layout.

package gen

import (
	"database/sql"
)

type DownloadToken struct {
	TokenHash   string
	UserID      string
	ContentID   string
	ContentType string
	StreamUrl   string
	Title       string
	ExpiresAt   int64
	Used        bool
	UsedAt      sql.NullInt64
	CreatedAt   int64
}

type Profile struct {
	UserID    string
	IsAdmin   bool
	CreatedAt int64
	UpdatedAt int64
}

type Subscription struct {
	UserID    string
	PlanID    string
	StartDate int64
	EndDate   int64
	Active    bool
	UpdatedAt int64
}
