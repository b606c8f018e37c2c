package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/events"
	"github.com/luofilm/luofilm/internal/download/metrics"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/cryptox"
	"github.com/luofilm/luofilm/pkg/idx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// DefaultDownloadTokenTTL is how long an issued download link stays valid.
const DefaultDownloadTokenTTL = time.Hour

// StreamPath is the redemption route embedded in download URLs.
const StreamPath = "/v1/downloads/stream"

// tokenAttempts bounds retries on a fingerprint collision.
const tokenAttempts = 3

type DownloadRequest struct {
	UserID      string
	ContentID   string
	ContentType string
	StreamURL   string
	Title       string
}

// Authorization is a freshly issued download token.
type Authorization struct {
	Token       string
	DownloadURL string
	ExpiresAt   time.Time
	IsAdmin     bool
}

type DownloadService struct {
	Store         store.Store
	Entitlements  *EntitlementService
	Events        events.Publisher
	Metrics       *metrics.Metrics
	PublicBaseURL string
	TokenTTL      time.Duration
	Now           func() time.Time
}

// AuthorizeDownload issues a single-use token for the requested stream if
// the user is entitled. Denied requests persist nothing.
func (s *DownloadService) AuthorizeDownload(ctx context.Context, req DownloadRequest) (*Authorization, error) {
	log := slogx.FromContext(ctx)

	if err := validateDownloadRequest(req); err != nil {
		s.Metrics.Authorization("invalid")
		return nil, err
	}

	ent, err := s.Entitlements.CheckEntitlement(ctx, req.UserID)
	if err != nil {
		s.Metrics.Authorization("error")
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !ent.Allowed {
		log.Info("download denied",
			slog.String("user_id", req.UserID),
			slog.String("content_id", req.ContentID),
		)
		s.Metrics.Authorization("denied")
		s.publish(ctx, events.Event{
			Type:      events.TypeDenied,
			UserID:    req.UserID,
			ContentID: req.ContentID,
			Reason:    ErrSubscriptionRequired.Error(),
		})
		return nil, ErrSubscriptionRequired
	}

	now := clock(s.Now)
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = DefaultDownloadTokenTTL
	}

	var (
		token  string
		record domain.DownloadToken
	)
	for attempt := 1; ; attempt++ {
		token, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Error("failed to generate download token", slog.Any("error", err))
			s.Metrics.Authorization("error")
			return nil, err
		}

		record = domain.DownloadToken{
			TokenHash:   cryptox.FingerprintToken(token),
			UserID:      req.UserID,
			ContentID:   req.ContentID,
			ContentType: req.ContentType,
			StreamURL:   req.StreamURL,
			Title:       req.Title,
			ExpiresAt:   now.Add(ttl),
			CreatedAt:   now,
		}

		err = s.Store.DownloadTokens().CreateDownloadToken(ctx, record)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < tokenAttempts {
			continue
		}
		log.Error("failed to store download token",
			slog.String("user_id", req.UserID),
			slog.Any("error", err),
		)
		s.Metrics.Authorization("error")
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	log.Info("download authorized",
		slog.String("user_id", req.UserID),
		slog.String("content_id", req.ContentID),
		slog.String("token_fp", cryptox.ShortFingerprint(record.TokenHash)),
		slog.Bool("admin", ent.IsAdmin),
	)
	s.Metrics.Authorization("granted")
	s.publish(ctx, events.Event{
		Type:       events.TypeAuthorized,
		UserID:     req.UserID,
		ContentID:  req.ContentID,
		OccurredAt: now,
	})

	return &Authorization{
		Token:       token,
		DownloadURL: DownloadURL(s.PublicBaseURL, token),
		ExpiresAt:   record.ExpiresAt,
		IsAdmin:     ent.IsAdmin,
	}, nil
}

// DownloadURL builds the redemption link for token. An empty base yields a
// path relative to the service root.
func DownloadURL(base, token string) string {
	return strings.TrimRight(base, "/") + StreamPath + "?token=" + url.QueryEscape(token)
}

func validateDownloadRequest(req DownloadRequest) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	case strings.TrimSpace(req.ContentID) == "":
		return fmt.Errorf("%w: contentId is required", ErrInvalidRequest)
	case strings.TrimSpace(req.StreamURL) == "":
		return fmt.Errorf("%w: streamUrl is required", ErrInvalidRequest)
	case strings.TrimSpace(req.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}

	u, err := url.Parse(req.StreamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: streamUrl must be an absolute http(s) URL", ErrInvalidRequest)
	}
	return nil
}

func (s *DownloadService) publish(ctx context.Context, e events.Event) {
	publish(ctx, s.Events, e)
}

// publish is best effort; a failed publish never fails the request.
func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if e.ID == "" {
		e.ID = idx.NewAt(e.OccurredAt).String()
	}
	if e.RequestID == "" {
		e.RequestID = slogx.RequestID(ctx)
	}
	if err := p.Publish(ctx, e); err != nil {
		slogx.FromContext(ctx).Warn("failed to publish event",
			slog.String("type", e.Type),
			slog.Any("error", err),
		)
	}
}
