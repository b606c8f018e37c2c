package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite/gen"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	q  *gen.Queries
}

// DSN builds a modernc sqlite DSN for a database file with WAL and a busy
// timeout. ":memory:" is passed through unchanged.
func DSN(file string) string {
	if file == ":memory:" {
		return file
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection serializes writers and keeps ":memory:" databases
	// shared across every query.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db: db,
		q:  gen.New(db),
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Profiles() store.Profiles             { return &profilesRepo{q: s.q} }
func (s *Store) Subscriptions() store.Subscriptions   { return &subscriptionsRepo{q: s.q} }
func (s *Store) DownloadTokens() store.DownloadTokens { return &downloadTokensRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}
