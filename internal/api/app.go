package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ProductsAPI/internal/auth"
	"ProductsAPI/internal/catalog"
	"ProductsAPI/pkg/kit"
)

type Deps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// RateLimitPerMin <= 0 disables the per-IP limiter.
	RateLimitPerMin int
}

const (
	loginLimitPerMin = 5
	limitWindow      = 60 * time.Second
)

// NewHandler assembles the full API surface: public catalog reads, token-gated
// mutations, login, health probes and optional metrics.
func NewHandler(products *catalog.Server, authSrv *auth.Server, deps Deps) http.Handler {
	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil && deps.Log != nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	setupMiddleware(r, deps)
	setupRoutes(r, products, authSrv, deps, metricsOn)

	return r
}

func setupMiddleware(r *chi.Mux, deps Deps) {
	r.Use(chimw.RequestID)
	r.Use(kit.CorrelationID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.RateLimitPerMin > 0 {
		limiter := kit.NewIPRateLimiter(deps.RateLimitPerMin, int(limitWindow.Seconds()))
		r.Use(limiter.Middleware)
	}

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, products *catalog.Server, authSrv *auth.Server, deps Deps, metricsOn bool) {
	requireAuth := auth.RequireAuth(authSrv.JWT)

	r.Route("/products", func(rr chi.Router) {
		rr.Get("/", products.HandleList)
		rr.Get("/stream", products.HandleStream)
		rr.Get("/{id}", products.HandleGetByID)

		rr.Group(func(pr chi.Router) {
			pr.Use(requireAuth)
			pr.Post("/", products.HandleCreate)
			pr.Put("/{id}", products.HandleUpdate)
			pr.Delete("/{id}", products.HandleDelete)
		})
	})

	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, int(limitWindow.Seconds()))
	r.Route("/auth", func(rr chi.Router) {
		rr.With(loginLimiter.Middleware).Post("/login", authSrv.HandleLogin)
		rr.With(requireAuth).Get("/", authSrv.HandleCheck)
	})

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(products))

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(products *catalog.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := products.Store.Ping(r.Context()); err != nil {
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
