// Package redis stores profiles, subscriptions and download tokens in Redis.
// Each record is a hash. Conditional writes run as Lua scripts so they are
// atomic on the server.
package redis

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/luofilm/luofilm/internal/download/store"
)

// DefaultPrefix namespaces every key this driver writes.
const DefaultPrefix = "luofilm:"

// tokenTTLBackstop keeps token hashes around this long past expiry so that a
// late redemption still reports "expired" rather than "invalid". The sweeper
// normally deletes them first.
const tokenTTLBackstop = 24 * time.Hour

type Store struct {
	client *goredis.Client
	keys   keyspace
}

// NewStore wraps an open client. An empty prefix uses DefaultPrefix.
func NewStore(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, keys: keyspace(prefix)}
}

// ApplyMigrations is a no-op; the layout is created on write.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Profiles() store.Profiles {
	return &profilesRepo{client: s.client, keys: s.keys}
}

func (s *Store) Subscriptions() store.Subscriptions {
	return &subscriptionsRepo{client: s.client, keys: s.keys}
}

func (s *Store) DownloadTokens() store.DownloadTokens {
	return &downloadTokensRepo{client: s.client, keys: s.keys}
}

type keyspace string

func (k keyspace) profile(userID string) string      { return string(k) + "profile:" + userID }
func (k keyspace) subscription(userID string) string { return string(k) + "subscription:" + userID }

// activeSubscriptions is a sorted set of active user ids scored by end date.
func (k keyspace) activeSubscriptions() string { return string(k) + "subscriptions:active" }

func (k keyspace) tokenPrefix() string        { return string(k) + "download:token:" }
func (k keyspace) token(hash string) string   { return k.tokenPrefix() + hash }
func (k keyspace) tokenExpiry() string        { return string(k) + "download:tokens:expiry" }
func (k keyspace) usedTokens() string         { return string(k) + "download:tokens:used" }

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) time.Time {
	ms, _ := strconv.ParseInt(s, 10, 64)
	return time.UnixMilli(ms).UTC()
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
