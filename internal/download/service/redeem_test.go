package service

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/cryptox"
)

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("first validation succeeds and the second is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")

		require.NoError(t, f.redemption.Validate(ctx, auth.Token))
		require.ErrorIs(t, f.redemption.Validate(ctx, auth.Token), ErrTokenAlreadyUsed)

		rec, err := f.store.DownloadTokens().GetDownloadToken(ctx, cryptox.FingerprintToken(auth.Token))
		require.NoError(t, err, "validate keeps used records for the sweeper")
		require.True(t, rec.Used)
		require.NotNil(t, rec.UsedAt)
	})

	t.Run("expired token is rejected and removed", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")

		f.clock.Advance(time.Hour)
		require.ErrorIs(t, f.redemption.Validate(ctx, auth.Token), ErrTokenExpired)

		_, err := f.store.DownloadTokens().GetDownloadToken(ctx, cryptox.FingerprintToken(auth.Token))
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, f.redemption.Validate(ctx, auth.Token), ErrInvalidToken)
	})

	t.Run("one millisecond before expiry is still valid", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")

		f.clock.Advance(time.Hour - time.Millisecond)
		require.NoError(t, f.redemption.Validate(ctx, auth.Token))
	})

	t.Run("expired wins over used", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")
		require.NoError(t, f.redemption.Validate(ctx, auth.Token))

		f.clock.Advance(2 * time.Hour)
		require.ErrorIs(t, f.redemption.Validate(ctx, auth.Token), ErrTokenExpired)
	})

	t.Run("unknown and empty tokens", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.redemption.Validate(ctx, "not-a-token"), ErrInvalidToken)
		require.ErrorIs(t, f.redemption.Validate(ctx, ""), ErrInvalidRequest)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Close())
		require.ErrorIs(t, f.redemption.Validate(ctx, "tok"), ErrStorageUnavailable)
	})
}

func TestValidateAtMostOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.subscribe(t, "u2", "1month")
	auth := f.authorize(t, "u2")

	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := make(chan struct{})
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := f.redemption.Validate(ctx, auth.Token)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)
	}
	require.Equal(t, 1, ok)
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	t.Run("relays origin media", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth, err := f.downloads.AuthorizeDownload(ctx, DownloadRequest{
			UserID:    "u2",
			ContentID: "c9",
			StreamURL: "https://cdn.example/film.mp4",
			Title:     "My Movie: Part 2?!",
		})
		require.NoError(t, err)

		dl, err := f.redemption.Stream(ctx, auth.Token)
		require.NoError(t, err)
		body, err := io.ReadAll(dl.Media.Body)
		require.NoError(t, err)
		require.NoError(t, dl.Media.Body.Close())

		require.Equal(t, "film-bytes", string(body))
		require.Equal(t, "video/mp4", dl.Media.ContentType)
		require.Equal(t, "My_Movie_Part_2.mp4", dl.Filename)
		require.Equal(t, []string{"https://cdn.example/film.mp4"}, f.origin.requested())

		_, err = f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)
	})

	t.Run("drive view links are fetched in direct form", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth, err := f.downloads.AuthorizeDownload(ctx, DownloadRequest{
			UserID:    "u2",
			ContentID: "c1",
			StreamURL: "https://drive.google.com/file/d/1XyZ_abc-42/view?usp=sharing",
			Title:     "Drive Film",
		})
		require.NoError(t, err)

		dl, err := f.redemption.Stream(ctx, auth.Token)
		require.NoError(t, err)
		dl.Media.Body.Close()

		require.Equal(t,
			[]string{"https://drive.google.com/uc?export=download&id=1XyZ_abc-42&confirm=t"},
			f.origin.requested(),
		)
	})

	t.Run("used token is rejected and removed", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")
		require.NoError(t, f.redemption.Validate(ctx, auth.Token))

		_, err := f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)

		_, err = f.store.DownloadTokens().GetDownloadToken(ctx, cryptox.FingerprintToken(auth.Token))
		require.ErrorIs(t, err, store.ErrNotFound)
		require.Empty(t, f.origin.requested())
	})

	t.Run("upstream failure burns the token", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		f.origin.status = http.StatusBadGateway
		auth := f.authorize(t, "u2")

		_, err := f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrUpstreamFetchFailed)

		f.origin.status = http.StatusOK
		_, err = f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrTokenAlreadyUsed)
	})

	t.Run("network failure", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		f.origin.status = 0
		auth := f.authorize(t, "u2")

		_, err := f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrUpstreamFetchFailed)
	})

	t.Run("expired token never reaches origin", func(t *testing.T) {
		f := newFixture(t)
		f.subscribe(t, "u2", "1month")
		auth := f.authorize(t, "u2")
		f.clock.Advance(61 * time.Minute)

		_, err := f.redemption.Stream(ctx, auth.Token)
		require.ErrorIs(t, err, ErrTokenExpired)
		require.Empty(t, f.origin.requested())
	})
}

func TestRedeemLostRace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := f.clock.Now()

	// Simulate another request spending the token between read and write.
	const token = "raced-token"
	hash := cryptox.FingerprintToken(token)
	require.NoError(t, f.store.DownloadTokens().CreateDownloadToken(ctx, domain.DownloadToken{
		TokenHash: hash, UserID: "u", ContentID: "c", StreamURL: "https://x/v", Title: "t",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}))
	f.redemption.Store = &racingStore{Store: f.store, hash: hash, now: now}

	_, err := f.redemption.Redeem(ctx, token)
	require.ErrorIs(t, err, ErrTokenAlreadyUsed)
}

// racingStore spends the token right after it is read.
type racingStore struct {
	store.Store
	hash string
	now  time.Time
}

func (s *racingStore) DownloadTokens() store.DownloadTokens {
	return &racingTokens{DownloadTokens: s.Store.DownloadTokens(), s: s}
}

type racingTokens struct {
	store.DownloadTokens
	s *racingStore
}

func (t *racingTokens) GetDownloadToken(ctx context.Context, hash string) (domain.DownloadToken, error) {
	rec, err := t.DownloadTokens.GetDownloadToken(ctx, hash)
	if err == nil && hash == t.s.hash {
		_ = t.DownloadTokens.MarkDownloadTokenUsed(ctx, hash, t.s.now)
	}
	return rec, err
}
