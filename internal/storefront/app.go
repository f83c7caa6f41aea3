package storefront

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"

	"BookCart/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

const (
	checkoutLimitPerMin = 5
	sessionLimitPerMin  = 10
	limitWindow         = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil && deps.Log != nil {
		deps.Log.Warn("metrics enabled but Registry is nil")
	}

	var metrics *kit.Metrics
	if metricsOn {
		metrics = kit.NewMetrics(deps.Registry)
		s.Outcomes = func(outcome string) {
			metrics.CheckoutOutcomes.WithLabelValues(deps.Service, outcome).Inc()
		}
	}

	setupMiddleware(r, deps, metrics)
	setupRoutes(r, s, deps, metrics)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps, metrics *kit.Metrics) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if metrics != nil {
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps, metrics *kit.Metrics) {
	checkoutLimiter := kit.NewIPRateLimiter(checkoutLimitPerMin, int(limitWindow.Seconds()))
	sessionLimiter := kit.NewIPRateLimiter(sessionLimitPerMin, int(limitWindow.Seconds()))

	r.Route("/cart", func(rr chi.Router) {
		rr.Get("/", s.handleSnapshot)
		rr.Delete("/", s.handleClear)

		rr.Post("/items", s.handleAdd)
		rr.Put("/items/{id}", s.handleSetQuantity)
		rr.Delete("/items/{id}", s.handleRemove)

		rr.With(checkoutLimiter.Middleware).Post("/checkout", s.handleCheckout)
	})

	r.Route("/session", func(rr chi.Router) {
		rr.With(sessionLimiter.Middleware).Put("/", s.handleSignIn)
		rr.Delete("/", s.handleSignOut)
	})

	r.Get("/healthz", healthz)
	r.Get("/readyz", s.handleReady)

	if metrics != nil {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
