package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/cryptox"
	"github.com/luofilm/luofilm/pkg/slogx"
)

func seedToken(t *testing.T, st store.Store, token string, expiresAt time.Time, used bool, now time.Time) string {
	t.Helper()
	ctx := context.Background()
	hash := cryptox.FingerprintToken(token)
	require.NoError(t, st.DownloadTokens().CreateDownloadToken(ctx, domain.DownloadToken{
		TokenHash: hash, UserID: "u", ContentID: "c", StreamURL: "https://x/v", Title: "t",
		ExpiresAt: expiresAt, CreatedAt: now,
	}))
	if used {
		require.NoError(t, st.DownloadTokens().MarkDownloadTokenUsed(ctx, hash, now))
	}
	return hash
}

func TestSweepConverges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.subscribe(t, "lapsing", "1hour")
	f.clock.Advance(time.Hour)
	f.subscribe(t, "current", "1day")

	now := f.clock.Now()
	fresh := seedToken(t, f.store, "fresh", now.Add(time.Hour), false, now)
	usedHash := seedToken(t, f.store, "used", now.Add(time.Hour), true, now)
	expired := seedToken(t, f.store, "expired", now.Add(-time.Second), false, now.Add(-time.Hour))

	sweeper := NewSweeperService(f.store, slogx.Discard(), time.Minute)
	sweeper.Now = f.clock.Now

	deleted, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	for _, h := range []string{usedHash, expired} {
		_, err := f.store.DownloadTokens().GetDownloadToken(ctx, h)
		require.ErrorIs(t, err, store.ErrNotFound)
	}
	_, err = f.store.DownloadTokens().GetDownloadToken(ctx, fresh)
	require.NoError(t, err)

	sub, err := f.store.Subscriptions().GetSubscription(ctx, "lapsing")
	require.NoError(t, err)
	require.False(t, sub.Active)

	sub, err = f.store.Subscriptions().GetSubscription(ctx, "current")
	require.NoError(t, err)
	require.True(t, sub.Active)

	deleted, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestSweepKeepsRedeemableTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	keep := seedToken(t, f.store, "keep", now.Add(time.Hour), false, now)
	seedToken(t, f.store, "at-expiry", now, false, now.Add(-time.Hour))

	sweeper := NewSweeperService(f.store, slogx.Discard(), 0)
	sweeper.Now = f.clock.Now
	require.Equal(t, DefaultSweepInterval, sweeper.Interval)

	deleted, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	_, err = f.store.DownloadTokens().GetDownloadToken(ctx, keep)
	require.NoError(t, err)
}

func TestSweeperLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().Truncate(time.Millisecond)
	hash := seedToken(t, f.store, "stale", now.Add(-time.Minute), false, now.Add(-time.Hour))

	sweeper := NewSweeperService(f.store, slogx.Discard(), 10*time.Millisecond)
	sweeper.Start()

	require.Eventually(t, func() bool {
		_, err := f.store.DownloadTokens().GetDownloadToken(ctx, hash)
		return err != nil
	}, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}

func TestSweeperStopWithoutStart(t *testing.T) {
	f := newFixture(t)
	sweeper := NewSweeperService(f.store, slogx.Discard(), time.Minute)

	stopped := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a sweeper that never started")
	}

	// Start after Stop must not launch a loop.
	sweeper.Start()
	sweeper.Stop()
}

func TestSweeperStartTwice(t *testing.T) {
	f := newFixture(t)
	sweeper := NewSweeperService(f.store, slogx.Discard(), 10*time.Millisecond)

	sweeper.Start()
	sweeper.Start()
	require.NotPanics(t, sweeper.Stop)
}

func TestSweepReportsStorageFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	sweeper := NewSweeperService(f.store, slogx.Discard(), time.Minute)
	_, err := sweeper.Sweep(context.Background())
	require.Error(t, err)
}
