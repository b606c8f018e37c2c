// Package storetest is a conformance suite every store driver must pass.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises every repository against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("subscriptions", func(t *testing.T) { testSubscriptions(t, newStore(t)) })
	t.Run("download tokens", func(t *testing.T) { testDownloadTokens(t, newStore(t)) })
	t.Run("mark used races", func(t *testing.T) { testMarkUsedRace(t, newStore(t)) })
	t.Run("stale sweep", func(t *testing.T) { testDeleteStale(t, newStore(t)) })
}

// now is truncated to the millisecond precision drivers persist.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func testProfiles(t *testing.T, st store.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Ping(ctx))

	_, err := st.Profiles().GetProfile(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	ts := now()
	require.NoError(t, st.Profiles().UpsertProfile(ctx, domain.Profile{
		UserID: "admin-1", IsAdmin: true, CreatedAt: ts, UpdatedAt: ts,
	}))

	p, err := st.Profiles().GetProfile(ctx, "admin-1")
	require.NoError(t, err)
	require.True(t, p.IsAdmin)
	require.True(t, ts.Equal(p.CreatedAt))

	later := ts.Add(time.Minute)
	require.NoError(t, st.Profiles().UpsertProfile(ctx, domain.Profile{
		UserID: "admin-1", IsAdmin: false, CreatedAt: later, UpdatedAt: later,
	}))

	p, err = st.Profiles().GetProfile(ctx, "admin-1")
	require.NoError(t, err)
	require.False(t, p.IsAdmin)
	require.True(t, ts.Equal(p.CreatedAt), "created_at survives upsert")
	require.True(t, later.Equal(p.UpdatedAt))
}

func testSubscriptions(t *testing.T, st store.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = st.Close() })
	subs := st.Subscriptions()
	ts := now()

	_, err := subs.GetSubscription(ctx, "u1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, subs.DeactivateSubscription(ctx, "u1", ts), store.ErrNotFound)

	live := domain.Subscription{
		UserID: "live", PlanID: "1day", StartDate: ts, EndDate: ts.Add(24 * time.Hour), Active: true, UpdatedAt: ts,
	}
	lapsed := domain.Subscription{
		UserID: "lapsed", PlanID: "1hour", StartDate: ts.Add(-2 * time.Hour), EndDate: ts.Add(-time.Hour), Active: true, UpdatedAt: ts,
	}
	require.NoError(t, subs.UpsertSubscription(ctx, live))
	require.NoError(t, subs.UpsertSubscription(ctx, lapsed))

	got, err := subs.GetSubscription(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, "1day", got.PlanID)
	require.True(t, got.Active)
	require.True(t, live.EndDate.Equal(got.EndDate))

	n, err := subs.DeactivateExpiredSubscriptions(ctx, ts)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err = subs.GetSubscription(ctx, "lapsed")
	require.NoError(t, err)
	require.False(t, got.Active)

	n, err = subs.DeactivateExpiredSubscriptions(ctx, ts)
	require.NoError(t, err)
	require.Zero(t, n, "already inactive rows are not counted again")

	require.NoError(t, subs.DeactivateSubscription(ctx, "live", ts))
	got, err = subs.GetSubscription(ctx, "live")
	require.NoError(t, err)
	require.False(t, got.Active)

	live.EndDate = ts.Add(48 * time.Hour)
	require.NoError(t, subs.UpsertSubscription(ctx, live))
	got, err = subs.GetSubscription(ctx, "live")
	require.NoError(t, err)
	require.True(t, got.Active, "upsert replaces the record")
	require.True(t, live.EndDate.Equal(got.EndDate))
}

func newToken(hash string, expiresAt, createdAt time.Time) domain.DownloadToken {
	return domain.DownloadToken{
		TokenHash:   hash,
		UserID:      "u1",
		ContentID:   "c1",
		ContentType: "movie",
		StreamURL:   "https://cdn.example.com/video.mp4",
		Title:       "Demo",
		ExpiresAt:   expiresAt,
		CreatedAt:   createdAt,
	}
}

func testDownloadTokens(t *testing.T, st store.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = st.Close() })
	tokens := st.DownloadTokens()
	ts := now()

	_, err := tokens.GetDownloadToken(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, tokens.MarkDownloadTokenUsed(ctx, "missing", ts), store.ErrNotFound)
	require.NoError(t, tokens.DeleteDownloadToken(ctx, "missing"))

	tok := newToken("hash-1", ts.Add(time.Hour), ts)
	require.NoError(t, tokens.CreateDownloadToken(ctx, tok))
	require.ErrorIs(t, tokens.CreateDownloadToken(ctx, tok), store.ErrAlreadyExists)

	got, err := tokens.GetDownloadToken(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, tok.UserID, got.UserID)
	require.Equal(t, tok.ContentID, got.ContentID)
	require.Equal(t, tok.ContentType, got.ContentType)
	require.Equal(t, tok.StreamURL, got.StreamURL)
	require.Equal(t, tok.Title, got.Title)
	require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
	require.False(t, got.Used)
	require.Nil(t, got.UsedAt)

	usedAt := ts.Add(time.Second)
	require.NoError(t, tokens.MarkDownloadTokenUsed(ctx, "hash-1", usedAt))
	require.ErrorIs(t, tokens.MarkDownloadTokenUsed(ctx, "hash-1", usedAt), store.ErrConflict)

	got, err = tokens.GetDownloadToken(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
	require.True(t, usedAt.Equal(*got.UsedAt))

	expired := newToken("hash-2", ts, ts.Add(-time.Hour))
	require.NoError(t, tokens.CreateDownloadToken(ctx, expired))
	require.ErrorIs(t, tokens.MarkDownloadTokenUsed(ctx, "hash-2", ts), store.ErrConflict,
		"a token is not markable at its expiry instant")

	// One instant before expiry the same argument binds as used_at.
	justBefore := ts.Add(-time.Millisecond)
	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("hash-3", ts, ts.Add(-time.Hour))))
	require.NoError(t, tokens.MarkDownloadTokenUsed(ctx, "hash-3", justBefore))
	got, err = tokens.GetDownloadToken(ctx, "hash-3")
	require.NoError(t, err)
	require.True(t, justBefore.Equal(*got.UsedAt))

	require.NoError(t, tokens.DeleteDownloadToken(ctx, "hash-1"))
	_, err = tokens.GetDownloadToken(ctx, "hash-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMarkUsedRace(t *testing.T, st store.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = st.Close() })
	tokens := st.DownloadTokens()
	ts := now()

	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("race", ts.Add(time.Hour), ts)))

	const workers = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
		start     = make(chan struct{})
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := tokens.MarkDownloadTokenUsed(ctx, "race", now()); err {
			case nil:
				successes.Add(1)
			case store.ErrConflict:
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, successes.Load())
	require.EqualValues(t, workers-1, conflicts.Load())
}

func testDeleteStale(t *testing.T, st store.Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = st.Close() })
	tokens := st.DownloadTokens()
	ts := now()

	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("fresh", ts.Add(time.Hour), ts)))
	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("expired", ts.Add(-time.Minute), ts.Add(-time.Hour))))
	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("at-expiry", ts, ts.Add(-time.Hour))))
	require.NoError(t, tokens.CreateDownloadToken(ctx, newToken("used", ts.Add(time.Hour), ts)))
	require.NoError(t, tokens.MarkDownloadTokenUsed(ctx, "used", ts))

	n, err := tokens.DeleteStaleDownloadTokens(ctx, ts)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	for _, hash := range []string{"expired", "at-expiry", "used"} {
		_, err := tokens.GetDownloadToken(ctx, hash)
		require.ErrorIs(t, err, store.ErrNotFound, hash)
	}
	_, err = tokens.GetDownloadToken(ctx, "fresh")
	require.NoError(t, err)

	n, err = tokens.DeleteStaleDownloadTokens(ctx, ts)
	require.NoError(t, err)
	require.Zero(t, n)
}
