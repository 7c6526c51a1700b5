package devbackend

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlasplast/brandadmin/pkg/health"
	"github.com/atlasplast/brandadmin/pkg/middleware"
)

// NewRouter builds the dev backend HTTP handler.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, "/health"))
	r.Use(middleware.RequestLogger(logger))

	hh := health.NewHandler()
	r.Get("/health/live", hh.LivenessHandler())
	r.Get("/health/ready", hh.ReadinessHandler())

	h.Routes(r)
	return r
}
