package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/config"
	"github.com/atlasplast/brandadmin/internal/handler"
	"github.com/atlasplast/brandadmin/internal/idempotency"
	admw "github.com/atlasplast/brandadmin/internal/middleware"
	"github.com/atlasplast/brandadmin/internal/proxy"
	"github.com/atlasplast/brandadmin/internal/web"
	"github.com/atlasplast/brandadmin/pkg/database"
	"github.com/atlasplast/brandadmin/pkg/health"
	"github.com/atlasplast/brandadmin/pkg/httpclient"
	"github.com/atlasplast/brandadmin/pkg/tracing"
)

// serviceTokenTTL is the lifetime of the token the pages present to /api.
const serviceTokenTTL = 15 * time.Minute

// App wires together all dependencies and runs the admin server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	redis          *redis.Client
	stopBackground context.CancelFunc
	tracerShutdown func(context.Context) error
}

// initTracer is swapped in tests.
var initTracer = tracing.InitTracer

// NewApp creates a new application instance: the upstream proxy, the client
// the pages use to reach it, the delete guard store and the HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := initTracer(ctx, tracing.Config{
		ServiceName:    "brandadmin",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		if err != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracerShutdown(shutdownCtx)
		}
	}()

	upstreamCfg := httpclient.DefaultConfig()
	upstreamCfg.Timeout = cfg.UpstreamTimeout
	var upstream httpclient.Doer = httpclient.New(upstreamCfg)
	if cfg.UpstreamCircuitBreaker {
		upstream = httpclient.NewCircuitBreakerClient(upstream, httpclient.DefaultCircuitBreakerConfig("upstream"), logger)
	}
	px := proxy.New(proxy.Config{
		BaseURL:      cfg.UpstreamBaseURL,
		ErrorDetails: cfg.ProxyErrorDetails,
		MaxBodyBytes: cfg.ProxyMaxUploadBytes,
	}, upstream, logger)

	healthHandler := health.NewHandler()
	healthHandler.RegisterNonCritical("upstream", dialCheck(cfg.UpstreamBaseURL))

	store, rdb, err := newGuardStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		healthHandler.RegisterCritical("redis", database.RedisHealthCheck(rdb))
	}
	guard := idempotency.NewGuard(store, logger)

	var (
		jwt  *admw.JWT
		opts []client.Option
	)
	if cfg.AdminJWTSecret != "" {
		jwt = admw.NewJWT(cfg.AdminJWTSecret)
		opts = append(opts, client.WithTokenSource(jwt.TokenSource("web-admin", handler.AdminRole, serviceTokenTTL)))
	}
	apiCfg := httpclient.DefaultConfig()
	apiCfg.Timeout = cfg.UpstreamTimeout + 5*time.Second
	api := client.New(cfg.AdminAPIBaseURL, httpclient.New(apiCfg), opts...)

	pages, err := web.NewHandler(api, guard, logger, cfg.ProxyMaxUploadBytes)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, fmt.Errorf("load pages: %w", err)
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	router := handler.NewRouter(bgCtx, cfg, handler.Deps{
		Proxy:  px,
		Pages:  pages,
		Health: healthHandler,
		JWT:    jwt,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2*cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		redis:          rdb,
		stopBackground: stopBackground,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newGuardStore returns the idempotency store selected by
// IDEMPOTENCY_BACKEND, plus the Redis client when one was opened.
func newGuardStore(ctx context.Context, cfg *config.Config) (idempotency.Store, *redis.Client, error) {
	if cfg.IdempotencyBackend != "redis" {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), nil, nil
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Host = cfg.RedisHost
	redisCfg.Port = cfg.RedisPort
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB
	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL), rdb, nil
}

// dialCheck reports whether a TCP connection to rawURL's host succeeds.
func dialCheck(rawURL string) health.Checker {
	return func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parse upstream URL: %w", err)
		}
		host := u.Host
		if u.Port() == "" {
			port := "80"
			if u.Scheme == "https" {
				port = "443"
			}
			host = net.JoinHostPort(u.Hostname(), port)
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return fmt.Errorf("upstream unreachable: %w", err)
		}
		_ = conn.Close()
		return nil
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("upstream", a.cfg.UpstreamBaseURL),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the server in order:
// 1. HTTP server (drain in-flight requests)
// 2. Background workers and Redis
// 3. Tracer (flush pending spans from drained requests)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.stopBackground()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
