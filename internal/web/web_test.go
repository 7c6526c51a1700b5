package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/internal/idempotency"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GetBrands(ctx context.Context, f domain.ListFilter) (*domain.ListResponse, error) {
	args := m.Called(ctx, f)
	resp, _ := args.Get(0).(*domain.ListResponse)
	return resp, args.Error(1)
}

func (m *mockAPI) GetBrand(ctx context.Context, identifier string) (*domain.Brand, error) {
	args := m.Called(ctx, identifier)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	args := m.Called(ctx, in)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) CreateBrandWithImages(ctx context.Context, u client.BrandUpload) (*domain.Brand, error) {
	args := m.Called(ctx, u)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	args := m.Called(ctx, id, in)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) PatchBrand(ctx context.Context, id string, p domain.BrandPatch) (*domain.Brand, error) {
	args := m.Called(ctx, id, p)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) UpdateBrandWithImages(ctx context.Context, id string, u client.BrandUpload) (*domain.Brand, error) {
	args := m.Called(ctx, id, u)
	b, _ := args.Get(0).(*domain.Brand)
	return b, args.Error(1)
}

func (m *mockAPI) DeleteBrand(ctx context.Context, id string) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockAPI) HardDeleteBrand(ctx context.Context, id string) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (http.Handler, *mockAPI) {
	t.Helper()
	api := &mockAPI{}
	guard := idempotency.NewGuard(idempotency.NewMemoryStore(time.Minute), testLogger())
	h, err := NewHandler(api, guard, testLogger(), 1<<20)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Routes(r)
	t.Cleanup(func() { api.AssertExpectations(t) })
	return r, api
}

func get(h http.Handler, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postForm(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// flashOf decodes the flash cookie set on rr.
func flashOf(t *testing.T, rr *httptest.ResponseRecorder) *flash {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge > 0 {
			data, err := base64.RawURLEncoding.DecodeString(c.Value)
			require.NoError(t, err)
			var f flash
			require.NoError(t, json.Unmarshal(data, &f))
			return &f
		}
	}
	return nil
}

func sampleBrand(id string) domain.Brand {
	return domain.Brand{
		ID:          id,
		Slug:        "atlas-" + id,
		Name:        "Atlas " + id,
		Origin:      domain.Localized{En: "Turkey", Ar: "تركيا"},
		Description: domain.Localized{En: "Pipes", Ar: "أنابيب"},
		IsActive:    true,
	}
}
