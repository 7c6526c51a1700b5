package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(ctx context.Context, d Doer, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	return d.Do(ctx, req)
}

func fastRetries(n int) Config {
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = n
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

// flakyUpstream answers the first failures requests with failStatus and
// records every request body it sees.
type flakyUpstream struct {
	failures   int32
	failStatus int

	mu     sync.Mutex
	calls  int32
	bodies []string
}

func (u *flakyUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	u.mu.Lock()
	u.calls++
	n := u.calls
	u.bodies = append(u.bodies, string(body))
	u.mu.Unlock()

	if n <= u.failures {
		w.WriteHeader(u.failStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"b-1"}`))
}

func (u *flakyUpstream) seen() (int32, []string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls, append([]string(nil), u.bodies...)
}

func TestDefaultConfig_SingleAttempt(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestDo_Retries(t *testing.T) {
	tests := []struct {
		name       string
		failStatus int
		failures   int32
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"no failures", http.StatusBadGateway, 0, 3, http.StatusOK, 1},
		{"recovers after 5xx", http.StatusServiceUnavailable, 2, 3, http.StatusOK, 3},
		{"retries exhausted", http.StatusBadGateway, 10, 2, http.StatusBadGateway, 3},
		{"no retries by default", http.StatusBadGateway, 1, 0, http.StatusBadGateway, 1},
		{"501 is final", http.StatusNotImplemented, 1, 3, http.StatusNotImplemented, 1},
		{"4xx is final", http.StatusNotFound, 1, 3, http.StatusNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &flakyUpstream{failures: tt.failures, failStatus: tt.failStatus}
			srv := httptest.NewServer(up)
			defer srv.Close()

			resp, err := get(context.Background(), New(fastRetries(tt.maxRetries)), srv.URL+"/brands/b-1")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			calls, _ := up.seen()
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	up := &flakyUpstream{failures: 1, failStatus: http.StatusBadGateway}
	srv := httptest.NewServer(up)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/brands/b-1", strings.NewReader(`{"slug":"atlas-plast"}`))
	require.NoError(t, err)

	resp, err := New(fastRetries(2)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, bodies := up.seen()
	assert.Equal(t, []string{`{"slug":"atlas-plast"}`, `{"slug":"atlas-plast"}`}, bodies)
}

func TestDo_StreamedBodySentOnce(t *testing.T) {
	up := &flakyUpstream{failures: 5, failStatus: http.StatusBadGateway}
	srv := httptest.NewServer(up)
	defer srv.Close()

	// Multipart uploads are forwarded as streams with no GetBody.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/upload", io.NopCloser(strings.NewReader("--boundary")))
	require.NoError(t, err)

	resp, err := New(fastRetries(3)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	calls, _ := up.seen()
	assert.Equal(t, int32(1), calls)
}

func TestDo_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		_, err := get(context.Background(), New(fastRetries(0)), "http://127.0.0.1:0/brands")
		assert.ErrorContains(t, err, "after 1 attempts")
	})

	t.Run("context ends during backoff", func(t *testing.T) {
		srv := httptest.NewServer(&flakyUpstream{failures: 100, failStatus: http.StatusServiceUnavailable})
		defer srv.Close()

		cfg := fastRetries(10)
		cfg.RetryWaitMin = 200 * time.Millisecond
		cfg.RetryWaitMax = time.Second
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := get(ctx, New(cfg), srv.URL)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.True(t, isRetryableError(context.DeadlineExceeded))
}

func TestAddJitter(t *testing.T) {
	assert.Zero(t, addJitter(0))
	assert.Equal(t, time.Duration(1), addJitter(1))

	seen := map[time.Duration]bool{}
	for range 100 {
		d := addJitter(time.Second)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
		seen[d] = true
	}
	assert.Greater(t, len(seen), 1)
}
