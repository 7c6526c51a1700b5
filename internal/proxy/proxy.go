// Package proxy relays the admin API surface to the upstream brand backend.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"

	"github.com/atlasplast/brandadmin/pkg/httpclient"
	"github.com/atlasplast/brandadmin/pkg/logger"
	"github.com/atlasplast/brandadmin/pkg/middleware"
	"github.com/atlasplast/brandadmin/pkg/tracing"
)

// maxResponseBytes bounds how much of an upstream reply is relayed.
const maxResponseBytes = 32 << 20

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxy_upstream_requests_total",
			Help: "Upstream requests made by the proxy, by route and outcome",
		},
		[]string{"route", "method", "outcome"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proxy_upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Config controls proxy behavior.
type Config struct {
	// BaseURL is the upstream origin, for example "http://localhost:5000".
	BaseURL string
	// ErrorDetails adds the underlying error message to failure envelopes.
	ErrorDetails bool
	// MaxBodyBytes bounds inbound request bodies, multipart included.
	MaxBodyBytes int64
}

// ErrorEnvelope is the body of every proxy failure.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Proxy forwards requests for Routes to the upstream backend.
type Proxy struct {
	cfg    Config
	doer   httpclient.Doer
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Proxy that sends upstream requests through doer.
func New(cfg Config, doer httpclient.Doer, logger *slog.Logger) *Proxy {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}
	return &Proxy{
		cfg:    cfg,
		doer:   doer,
		logger: logger,
		tracer: tracing.Tracer("github.com/atlasplast/brandadmin/proxy"),
	}
}

// Mount registers every route on r. Each route answers all methods itself
// so that OPTIONS and 405 responses carry the route's CORS headers.
//
// A literal path that chi prefers over a parameterized sibling, such as
// /api/brands/with-images over /api/brands/{id}, also serves the sibling's
// methods with the literal segment as the id.
func (p *Proxy) Mount(r chi.Router) {
	for _, rt := range Routes {
		bindings := []binding{{route: rt}}
		for _, other := range Routes {
			if id, ok := rt.shadowedID(other); ok {
				bindings = append(bindings, binding{route: other, id: id})
			}
		}
		r.Handle(rt.Path, p.handler(bindings))
		p.logger.Debug("registered proxy route",
			slog.String("path", rt.Path),
			slog.String("mode", rt.Mode.String()),
			slog.Int("bindings", len(bindings)),
		)
	}
}

// binding pairs a route with a fixed id for paths that stand in for {id}.
type binding struct {
	route Route
	id    string
}

// Handler returns the handler for one route, CORS included.
func (p *Proxy) Handler(rt Route) http.Handler {
	return p.handler([]binding{{route: rt}})
}

func (p *Proxy) handler(bindings []binding) http.Handler {
	var methods []string
	for _, b := range bindings {
		for _, m := range b.route.Methods {
			if !slices.Contains(methods, m) {
				methods = append(methods, m)
			}
		}
	}
	methods = append(methods, http.MethodOptions)

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  []string{"*"},
		AllowedMethods:  methods,
		AllowedHeaders:  []string{"Content-Type", "Authorization"},
		MaxAge:          -1,
		PreflightStatus: http.StatusOK,
	})
	return cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, b := range bindings {
			if b.route.allows(r.Method) {
				p.serve(w, r, b)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, ErrorEnvelope{Error: "Method not allowed"})
	}))
}

func (p *Proxy) serve(w http.ResponseWriter, r *http.Request, b binding) {
	rt := b.route
	target := p.upstreamURL(r, b)
	start := time.Now()

	body, err := p.forward(r.Context(), r, rt, target)
	upstreamRequestDuration.WithLabelValues(rt.Path, r.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(rt.Path, r.Method, "failure").Inc()
		logger.WithContext(r.Context(), p.logger).ErrorContext(r.Context(), "proxy request failed",
			slog.String("route", rt.Path),
			slog.String("method", r.Method),
			slog.String("upstream_url", target),
			slog.String("error", err.Error()),
		)
		env := ErrorEnvelope{Error: rt.FailureMessage}
		if p.cfg.ErrorDetails {
			env.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, env)
		return
	}

	upstreamRequestsTotal.WithLabelValues(rt.Path, r.Method, "success").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// upstreamURL builds base + path (params substituted) + raw query.
func (p *Proxy) upstreamURL(r *http.Request, b binding) string {
	path := b.route.Path
	if strings.Contains(path, "{id}") {
		id := b.id
		if id == "" {
			id = pathParam(r, "id")
		}
		path = strings.Replace(path, "{id}", url.PathEscape(id), 1)
	}
	u := p.cfg.BaseURL + path
	if r.URL.RawQuery != "" {
		u += "?" + r.URL.RawQuery
	}
	return u
}

// pathParam returns the decoded value of a chi URL parameter. chi matches
// against RawPath when it is set, so an escaped slash arrives still encoded.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}

// forward sends one upstream request and returns the JSON body of a 2xx
// reply. Any other outcome is an error.
func (p *Proxy) forward(ctx context.Context, r *http.Request, rt Route, target string) ([]byte, error) {
	body, contentType, err := p.outboundBody(r, rt)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationIDHeader, id)
	}

	ctx, span := tracing.StartClientSpan(ctx, p.tracer, "proxy "+r.Method+" "+rt.Path, req)
	resp, err := p.doer.Do(ctx, req)
	if err != nil {
		tracing.EndClientSpan(span, 0, err)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()
	tracing.EndClientSpan(span, resp.StatusCode, nil)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}
	if !json.Valid(data) {
		return nil, errors.New("upstream returned invalid JSON")
	}
	return data, nil
}

// outboundBody prepares the request body for the upstream call. GET and
// HEAD requests carry none.
func (p *Proxy) outboundBody(r *http.Request, rt Route) (*bytes.Buffer, string, error) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Body == nil {
		return nil, "", nil
	}
	if rt.Mode == Multipart {
		return reencodeMultipart(r, p.cfg.MaxBodyBytes)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, p.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read request body: %w", err)
	}
	if int64(len(data)) > p.cfg.MaxBodyBytes {
		return nil, "", fmt.Errorf("request body exceeds %d bytes", p.cfg.MaxBodyBytes)
	}
	return bytes.NewBuffer(data), r.Header.Get("Content-Type"), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
