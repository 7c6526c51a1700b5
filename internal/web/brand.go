package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/pkg/logger"
	"github.com/atlasplast/brandadmin/pkg/slug"
)

// NewBrand handles GET /create-brand.
func (h *Handler) NewBrand(w http.ResponseWriter, r *http.Request) {
	v := &formView{
		Input: domain.BrandInput{
			Products:        domain.LocalizedList{}.Clone(),
			BrandAdvantages: domain.LocalizedList{}.Clone(),
		},
		New: map[string]string{},
	}
	h.render(w, r, http.StatusOK, "form", pageData{Title: "Create Brand", Flash: popFlash(w, r), View: v})
}

// EditBrand handles GET /edit-brand/{id}.
func (h *Handler) EditBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.api.GetBrand(r.Context(), id)
	if err != nil {
		h.logAPIError(r, "load brand failed", err, slog.String("brand_id", id))
		redirectWithFlash(w, r, "/", errorFlash("Failed to fetch brand"))
		return
	}
	h.render(w, r, http.StatusOK, "form", pageData{Title: "Edit Brand", Flash: popFlash(w, r), View: formFromBrand(b)})
}

// SubmitNewBrand handles POST /create-brand.
func (h *Handler) SubmitNewBrand(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, &formView{})
}

// SubmitEditBrand handles POST /edit-brand/{id}.
func (h *Handler) SubmitEditBrand(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, &formView{IsEdit: true, ID: chi.URLParam(r, "id")})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, v *formView) {
	title := "Create Brand"
	failure := "Failed to create brand"
	success := "Brand created successfully"
	if v.IsEdit {
		title = "Edit Brand"
		failure = "Failed to update brand"
		success = "Brand updated successfully"
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := readForm(r, h.maxUpload); err != nil {
		h.logAPIError(r, "parse brand form failed", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	parseForm(r, v)

	staged, err := stageFiles(r)
	if err != nil {
		h.logAPIError(r, "read uploaded files failed", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	v.Staged = staged

	op, err := parseOp(r.FormValue("op"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if op.kind != "save" {
		op.apply(v)
		h.render(w, r, http.StatusOK, "form", pageData{Title: title, View: v})
		return
	}

	in := v.Input.Trimmed()
	if fe := in.Validate(); fe != nil {
		v.Errors = fe
		if in.Slug == "" && in.Name != "" {
			v.SlugSuggestion = slug.Generate(in.Name)
		}
		h.render(w, r, http.StatusUnprocessableEntity, "form", pageData{Title: title, View: v})
		return
	}

	upload := v.Staged.upload()
	var b *domain.Brand
	switch {
	case !v.IsEdit && upload.HasFiles():
		upload.Data = in
		b, err = h.api.CreateBrandWithImages(r.Context(), upload)
	case !v.IsEdit:
		b, err = h.api.CreateBrand(r.Context(), in)
	case upload.HasFiles():
		upload.Data = domain.PatchOf(in)
		b, err = h.api.UpdateBrandWithImages(r.Context(), v.ID, upload)
	default:
		b, err = h.api.UpdateBrand(r.Context(), v.ID, in)
	}
	if err != nil {
		h.logAPIError(r, "save brand failed", err, slog.String("brand_id", v.ID), slog.String("slug", in.Slug))
		h.render(w, r, http.StatusBadGateway, "form", pageData{
			Title: title,
			Flash: errorFlash(apiErrorMessage(err, failure)),
			View:  v,
		})
		return
	}

	logger.WithContext(r.Context(), h.logger).InfoContext(r.Context(), "brand saved",
		slog.String("brand_id", b.ID),
		slog.String("slug", b.Slug),
		slog.Bool("with_images", upload.HasFiles()),
	)
	redirectWithFlash(w, r, "/", successFlash(success))
}

var _ BrandAPI = (*client.Client)(nil)
