package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/luofilm/luofilm/api/download" // Swagger docs
	"github.com/luofilm/luofilm/internal/download/metrics"
	"github.com/luofilm/luofilm/internal/download/service"
	"github.com/luofilm/luofilm/internal/download/store"
	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/jwtx"
	"github.com/luofilm/luofilm/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	// verifier is nil when bearer authentication is disabled.
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics

	store               store.Store
	DownloadService     *service.DownloadService
	RedemptionService   *service.RedemptionService
	SubscriptionService *service.SubscriptionService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		metrics:      m,
	}

	// Metrics sits inside the logger so it sees the request the mux routes.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		m.Middleware(routeLabel),
	}

	return r
}

// routeLabel is the matched mux pattern, keeping metric labels bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func (r *Router) ApplyRoutes() {
	r.registerDownloads()
	r.registerSubscriptions()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			LUO FILM Download Service API
//	@version		0.1.0
//	@description	Issues single-use, one-hour download links to subscribers and relays the film when a link is redeemed.
//	@description
//	@description				Bearer authentication is optional. When enabled, download requests must come from the user they name and admin routes need the admin:write scope.
//
//	@contact.name				LUO FILM Engineering
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authEnabled() bool { return r.verifier != nil }

func (r *Router) registerDownloads() {
	authorize := &DownloadsHandler{
		DownloadService: r.DownloadService,
		RequireSubject:  r.authEnabled(),
	}

	// POST /downloads - moderate limit; keyed by user when authenticated
	mws := []httpx.Middleware{}
	if r.authEnabled() {
		mws = append(mws, httpx.AuthnMiddleware(r.verifier))
	}
	mws = append(mws, httpx.RateLimitByUser(httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/downloads", httpx.Chain(authorize, mws...))

	// Redemption is unauthenticated; the token is the credential. Strict
	// limits per IP make guessing impractical, and a tighter per-token limit
	// stops one link being hammered.
	r.Mux.Handle("GET /v1/downloads/validate",
		httpx.Chain(&ValidateHandler{RedemptionService: r.RedemptionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.RateLimitByIPAndQuery(httpx.TokenLimit, "token"),
		),
	)
	r.Mux.Handle("GET /v1/downloads/stream",
		httpx.Chain(&StreamHandler{RedemptionService: r.RedemptionService},
			httpx.RateLimitByIP(httpx.StrictLimit),
			httpx.RateLimitByIPAndQuery(httpx.TokenLimit, "token"),
		),
	)
}

func (r *Router) registerSubscriptions() {
	r.Mux.Handle("GET /v1/plans",
		httpx.Chain(&PlansHandler{SubscriptionService: r.SubscriptionService},
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	subs := &SubscriptionsHandler{SubscriptionService: r.SubscriptionService}
	r.Mux.Handle("GET /v1/subscriptions/{userId}",
		httpx.Chain(http.HandlerFunc(subs.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Admin writes exist only with authentication on.
	if !r.authEnabled() {
		return
	}

	r.Mux.Handle("PUT /v1/subscriptions/{userId}",
		httpx.Chain(http.HandlerFunc(subs.HandlePut),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeAdminWrite),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/profiles/{userId}",
		httpx.Chain(&ProfilesHandler{SubscriptionService: r.SubscriptionService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope(jwtx.ScopeAdminWrite),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (probes poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
