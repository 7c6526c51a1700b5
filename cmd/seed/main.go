// Command seed creates sample brands through the brand API.
//
//	SEED_BASE_URL=http://localhost:5000 SEED_COUNT=50 go run ./cmd/seed
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/config"
	admw "github.com/atlasplast/brandadmin/internal/middleware"
	"github.com/atlasplast/brandadmin/internal/seed"
	pkgconfig "github.com/atlasplast/brandadmin/pkg/config"
	"github.com/atlasplast/brandadmin/pkg/httpclient"
	"github.com/atlasplast/brandadmin/pkg/logger"
)

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.LoadSeed()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("brand-seed", cfg.LogLevel)

	var opts []client.Option
	if cfg.AdminJWTSecret != "" {
		jwt := admw.NewJWT(cfg.AdminJWTSecret)
		opts = append(opts, client.WithTokenSource(jwt.TokenSource("seed", "admin", 10*time.Minute)))
	}
	api := client.New(cfg.BaseURL, httpclient.New(httpclient.DefaultConfig()), opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	res, err := seed.Run(ctx, api, seed.Generate(cfg.Count, cfg.RandomSeed), log)
	log.Info("seed finished",
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		log.Error("seed aborted", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
