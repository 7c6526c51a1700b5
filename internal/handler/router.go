package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlasplast/brandadmin/internal/config"
	admw "github.com/atlasplast/brandadmin/internal/middleware"
	"github.com/atlasplast/brandadmin/internal/proxy"
	"github.com/atlasplast/brandadmin/internal/web"
	"github.com/atlasplast/brandadmin/pkg/health"
	"github.com/atlasplast/brandadmin/pkg/httputil"
	pkgmiddleware "github.com/atlasplast/brandadmin/pkg/middleware"
)

// AdminRole is the role required on /api when JWT auth is enabled.
const AdminRole = "admin"

// Deps are the components the router mounts.
type Deps struct {
	Proxy  *proxy.Proxy
	Pages  *web.Handler
	Health *health.Handler
	// JWT enables bearer auth on /api when non-nil.
	JWT *admw.JWT
}

// NewRouter creates the admin server router: global middleware, health and
// metrics endpoints, the /api proxy and the admin pages. ctx bounds the
// rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(admw.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout(cfg)))
	r.Use(pkgmiddleware.RequestLogging(logger, "/health", "/static", "/metrics"))
	r.Use(pkgmiddleware.PrometheusMetrics("brandadmin"))
	r.Use(pkgmiddleware.Tracing("brandadmin", "/health", "/static", "/metrics"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())

	metricsHandler := metricsIPAllowlist(cfg.MetricsAllowedCIDRs, logger)(promhttp.Handler())
	r.Get("/metrics", metricsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		if deps.JWT != nil {
			r.Use(pkgmiddleware.Auth(deps.JWT.Validate))
			r.Use(pkgmiddleware.RequireRole(AdminRole))
		}
		deps.Proxy.Mount(r)
	})

	deps.Pages.Routes(r)

	return r
}

// requestTimeout covers a page request that itself waits on an /api call.
func requestTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.UpstreamTimeout + 5*time.Second
}

// metricsIPAllowlist admits only clients whose address falls inside one of
// cidrs. Unparseable entries are logged and ignored.
func metricsIPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("invalid metrics CIDR, skipping", slog.String("cidr", cidr), slog.String("error", err.Error()))
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}

	allowed := func(remote string) bool {
		addr, err := netip.ParseAddrPort(remote)
		ip := addr.Addr()
		if err != nil {
			if ip, err = netip.ParseAddr(remote); err != nil {
				return false
			}
		}
		ip = ip.Unmap()
		for _, p := range prefixes {
			if p.Contains(ip) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed(r.RemoteAddr) {
				logger.Warn("metrics access denied", slog.String("remote_addr", r.RemoteAddr))
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "metrics endpoint is restricted"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
