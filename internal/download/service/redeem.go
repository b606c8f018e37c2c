package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/events"
	"github.com/luofilm/luofilm/internal/download/metrics"
	"github.com/luofilm/luofilm/internal/download/source"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/cryptox"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// Download is an authorized stream ready to be relayed. Callers must close
// Media.Body.
type Download struct {
	Token    domain.DownloadToken
	Media    *source.Media
	Filename string
}

// RedemptionService spends download tokens. Checking a token and consuming it
// are the same event: a token that validates once can never validate again.
type RedemptionService struct {
	Store   store.Store
	Fetcher *source.Fetcher
	Events  events.Publisher
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Validate consumes token without streaming anything.
func (s *RedemptionService) Validate(ctx context.Context, token string) error {
	rec, err := s.consume(ctx, token, false)
	s.Metrics.Redemption(metrics.ModeValidate, resultLabel(err))
	if err != nil {
		return err
	}
	s.publishRedeemed(ctx, rec, metrics.ModeValidate)
	return nil
}

// Redeem consumes token and returns its record. Unlike Validate it also
// deletes a record that is already used.
func (s *RedemptionService) Redeem(ctx context.Context, token string) (domain.DownloadToken, error) {
	return s.consume(ctx, token, true)
}

// Stream consumes token and opens the origin stream. The token is spent
// before the origin is contacted, so an upstream failure burns it.
func (s *RedemptionService) Stream(ctx context.Context, token string) (*Download, error) {
	log := slogx.FromContext(ctx)

	rec, err := s.Redeem(ctx, token)
	if err != nil {
		s.Metrics.Redemption(metrics.ModeStream, resultLabel(err))
		return nil, err
	}

	media, err := s.Fetcher.Fetch(ctx, rec.StreamURL)
	if err != nil {
		log.Error("upstream fetch failed",
			slog.String("token_fp", cryptox.ShortFingerprint(rec.TokenHash)),
			slog.String("content_id", rec.ContentID),
			slog.Any("error", err),
		)
		err = fmt.Errorf("%w: %w", ErrUpstreamFetchFailed, err)
		s.Metrics.Redemption(metrics.ModeStream, resultLabel(err))
		return nil, err
	}

	s.Metrics.Redemption(metrics.ModeStream, resultLabel(nil))
	s.publishRedeemed(ctx, rec, metrics.ModeStream)

	media.Body = &countingBody{ReadCloser: media.Body, done: s.Metrics.UpstreamBytes}
	return &Download{
		Token:    rec,
		Media:    media,
		Filename: source.Filename(rec.Title),
	}, nil
}

func (s *RedemptionService) consume(ctx context.Context, token string, deleteUsed bool) (domain.DownloadToken, error) {
	log := slogx.FromContext(ctx)
	if token == "" {
		return domain.DownloadToken{}, fmt.Errorf("%w: token is required", ErrInvalidRequest)
	}

	hash := cryptox.FingerprintToken(token)
	log = log.With(slog.String("token_fp", cryptox.ShortFingerprint(hash)))
	tokens := s.Store.DownloadTokens()
	now := clock(s.Now)

	rec, err := tokens.GetDownloadToken(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("unknown download token")
			return domain.DownloadToken{}, ErrInvalidToken
		}
		log.Error("failed to fetch download token", slog.Any("error", err))
		return domain.DownloadToken{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if rec.ExpiredAt(now) {
		s.discard(ctx, log, hash)
		log.Info("download token expired", slog.Time("expires_at", rec.ExpiresAt))
		return domain.DownloadToken{}, ErrTokenExpired
	}

	if rec.Used {
		if deleteUsed {
			s.discard(ctx, log, hash)
		}
		log.Info("download token reused")
		return domain.DownloadToken{}, ErrTokenAlreadyUsed
	}

	if err := tokens.MarkDownloadTokenUsed(ctx, hash, now); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			log.Info("download token spent concurrently")
			return domain.DownloadToken{}, ErrTokenAlreadyUsed
		case errors.Is(err, store.ErrNotFound):
			return domain.DownloadToken{}, ErrInvalidToken
		}
		log.Error("failed to mark download token used", slog.Any("error", err))
		return domain.DownloadToken{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	rec.Used = true
	rec.UsedAt = &now
	log.Info("download token redeemed",
		slog.String("user_id", rec.UserID),
		slog.String("content_id", rec.ContentID),
	)
	return rec, nil
}

// discard deletes a dead record. The sweeper retries anything left behind.
func (s *RedemptionService) discard(ctx context.Context, log *slog.Logger, hash string) {
	if err := s.Store.DownloadTokens().DeleteDownloadToken(ctx, hash); err != nil {
		log.Warn("failed to delete download token", slog.Any("error", err))
	}
}

func (s *RedemptionService) publishRedeemed(ctx context.Context, rec domain.DownloadToken, mode string) {
	publish(ctx, s.Events, events.Event{
		Type:      events.TypeRedeemed,
		UserID:    rec.UserID,
		ContentID: rec.ContentID,
		Reason:    mode,
	})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidToken):
		return "invalid"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "used"
	case errors.Is(err, ErrUpstreamFetchFailed):
		return "upstream_failed"
	default:
		return "error"
	}
}

// countingBody reports the bytes read through it once, on Close.
type countingBody struct {
	io.ReadCloser
	n      atomic.Int64
	done   func(int64)
	closed atomic.Bool
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n.Add(int64(n))
	return n, err
}

func (b *countingBody) Close() error {
	if b.closed.CompareAndSwap(false, true) {
		b.done(b.n.Load())
	}
	return b.ReadCloser.Close()
}
