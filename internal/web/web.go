// Package web renders the brand admin pages. It talks to brand data only
// through the client API wrapper.
package web

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/internal/idempotency"
	pkgmiddleware "github.com/atlasplast/brandadmin/pkg/middleware"
)

// PageSize is the number of brands per list page.
const PageSize = 10

// BrandAPI is the subset of the client API the pages use.
type BrandAPI interface {
	GetBrands(ctx context.Context, f domain.ListFilter) (*domain.ListResponse, error)
	GetBrand(ctx context.Context, identifier string) (*domain.Brand, error)
	CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error)
	CreateBrandWithImages(ctx context.Context, u client.BrandUpload) (*domain.Brand, error)
	UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error)
	PatchBrand(ctx context.Context, id string, p domain.BrandPatch) (*domain.Brand, error)
	UpdateBrandWithImages(ctx context.Context, id string, u client.BrandUpload) (*domain.Brand, error)
	DeleteBrand(ctx context.Context, id string) (json.RawMessage, error)
	HardDeleteBrand(ctx context.Context, id string) (json.RawMessage, error)
}

// Handler serves the admin pages.
type Handler struct {
	api       BrandAPI
	guard     *idempotency.Guard
	pages     *pages
	logger    *slog.Logger
	maxUpload int64
}

// NewHandler creates a Handler. maxUpload bounds form submissions.
func NewHandler(api BrandAPI, guard *idempotency.Guard, logger *slog.Logger, maxUpload int64) (*Handler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handler{api: api, guard: guard, pages: p, logger: logger, maxUpload: maxUpload}, nil
}

// Routes registers the pages and static assets on r.
func (h *Handler) Routes(r chi.Router) {
	r.With(pkgmiddleware.CacheControl(3600)).Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(pkgmiddleware.NoStore)

		r.Get("/", h.ListBrands)
		r.Get("/create-brand", h.NewBrand)
		r.Post("/create-brand", h.SubmitNewBrand)
		r.Get("/edit-brand/{id}", h.EditBrand)
		r.Post("/edit-brand/{id}", h.SubmitEditBrand)
		r.Post("/brands/{id}/delete", h.DeleteBrand)
		r.Post("/brands/{id}/hard-delete", h.HardDeleteBrand)
		r.Post("/brands/{id}/restore", h.RestoreBrand)
	})
}
