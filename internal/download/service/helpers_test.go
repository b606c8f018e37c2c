package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luofilm/luofilm/internal/download/domain"
	"github.com/luofilm/luofilm/internal/download/events"
	"github.com/luofilm/luofilm/internal/download/source"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/internal/download/store/drivers/sqlite"
)

// testClock is a settable clock aligned to the millisecond precision the
// stores keep.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingStore counts token inserts on top of a real store.
type countingStore struct {
	store.Store
	creates atomic.Int64
}

func (s *countingStore) DownloadTokens() store.DownloadTokens {
	return &countingTokens{DownloadTokens: s.Store.DownloadTokens(), creates: &s.creates}
}

type countingTokens struct {
	store.DownloadTokens
	creates *atomic.Int64
}

func (t *countingTokens) CreateDownloadToken(ctx context.Context, tok domain.DownloadToken) error {
	err := t.DownloadTokens.CreateDownloadToken(ctx, tok)
	if err == nil {
		t.creates.Add(1)
	}
	return err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fakeOrigin answers every request with status and body and records the
// URLs it was asked for.
type fakeOrigin struct {
	mu     sync.Mutex
	urls   []string
	status int
	body   string
}

func (o *fakeOrigin) client() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		o.mu.Lock()
		o.urls = append(o.urls, r.URL.String())
		status, body := o.status, o.body
		o.mu.Unlock()
		if status == 0 {
			return nil, errors.New("connection refused")
		}
		return &http.Response{
			StatusCode:    status,
			Header:        http.Header{"Content-Type": []string{"video/mp4"}},
			Body:          io.NopCloser(strings.NewReader(body)),
			ContentLength: int64(len(body)),
			Request:       r,
		}, nil
	})}
}

func (o *fakeOrigin) requested() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

type fixture struct {
	store      *countingStore
	clock      *testClock
	publisher  *recordingPublisher
	origin     *fakeOrigin
	entitle    *EntitlementService
	downloads  *DownloadService
	redemption *RedemptionService
	subs       *SubscriptionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	f := &fixture{
		store:     &countingStore{Store: st},
		clock:     newTestClock(),
		publisher: &recordingPublisher{},
		origin:    &fakeOrigin{status: http.StatusOK, body: "film-bytes"},
	}
	f.entitle = &EntitlementService{Store: f.store, Now: f.clock.Now}
	f.downloads = &DownloadService{
		Store:         f.store,
		Entitlements:  f.entitle,
		Events:        f.publisher,
		PublicBaseURL: "https://api.luofilm.example",
		Now:           f.clock.Now,
	}
	f.redemption = &RedemptionService{
		Store:   f.store,
		Fetcher: source.NewFetcher(f.origin.client(), nil),
		Events:  f.publisher,
		Now:     f.clock.Now,
	}
	f.subs = &SubscriptionService{Store: f.store, Entitlements: f.entitle, Now: f.clock.Now}
	return f
}

func (f *fixture) subscribe(t *testing.T, userID, planID string) {
	t.Helper()
	_, err := f.subs.Grant(context.Background(), userID, planID)
	require.NoError(t, err)
}

func (f *fixture) authorize(t *testing.T, userID string) *Authorization {
	t.Helper()
	auth, err := f.downloads.AuthorizeDownload(context.Background(), DownloadRequest{
		UserID:    userID,
		ContentID: "c1",
		StreamURL: "https://x/video.mp4",
		Title:     "Demo",
	})
	require.NoError(t, err)
	return auth
}
