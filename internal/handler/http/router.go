package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zensushi/zen/internal/service"
	"github.com/zensushi/zen/pkg/health"
	"github.com/zensushi/zen/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "zen-server"

// RouterOptions carries the deployment-specific router settings.
type RouterOptions struct {
	CORS            middleware.CORSConfig
	MenuCacheMaxAge int
	PprofCIDRs      []string
}

// NewRouter creates a chi router with all ordering routes registered.
func NewRouter(
	menuService *service.MenuService,
	orderService *service.OrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts RouterOptions,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.CORS(opts.CORS))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	menuHandler := NewMenuHandler(menuService, logger)
	r.Route("/cardapio", func(r chi.Router) {
		r.Use(middleware.CacheControl(opts.MenuCacheMaxAge))

		r.Get("/", menuHandler.ListMenu)
		r.Get("/{id}", menuHandler.GetItem)
	})

	orderHandler := NewOrderHandler(orderService, logger)
	r.With(chimw.AllowContentType("application/json"), IdempotencyKey).
		Post("/finalizar-pedido", orderHandler.PlaceOrder)

	return r
}
