package devbackend

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlasplast/brandadmin/internal/domain"
	apperrors "github.com/atlasplast/brandadmin/pkg/errors"
	"github.com/atlasplast/brandadmin/pkg/httputil"
	"github.com/atlasplast/brandadmin/pkg/pagination"
)

// maxUploadBytes bounds one multipart request.
const maxUploadBytes = 32 << 20

// Handler serves the upstream brand API.
type Handler struct {
	store  *Store
	files  *FileStore
	logger *slog.Logger
}

// NewHandler creates a Handler over store and files.
func NewHandler(store *Store, files *FileStore, logger *slog.Logger) *Handler {
	return &Handler{store: store, files: files, logger: logger}
}

// Routes registers the brand API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/brands", func(r chi.Router) {
		r.Get("/", h.ListBrands)
		r.Post("/", h.CreateBrand)
		r.Post("/with-images", h.CreateBrandWithImages)
		r.Get("/{id}", h.GetBrand)
		r.Put("/{id}", h.ReplaceBrand)
		r.Patch("/{id}", h.PatchBrand)
		r.Patch("/{id}/with-images", h.PatchBrandWithImages)
		r.Delete("/{id}", h.DeactivateBrand)
		r.Delete("/{id}/hard", h.DeleteBrand)
	})
	r.Post("/api/upload", h.Upload)
	r.Post("/api/upload-multiple", h.UploadMultiple)
}

type messageResponse struct {
	Message string        `json:"message"`
	Data    *domain.Brand `json:"data,omitempty"`
	ID      string        `json:"id,omitempty"`
}

type multiUploadResponse struct {
	Files []StoredFile `json:"files"`
	URLs  []string     `json:"urls"`
}

// ListBrands handles GET /api/brands.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	q := Query{
		Page:   pagination.FromRequest(r),
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("isActive must be true or false"), h.logger)
			return
		}
		q.IsActive = &v
	}

	brands, total := h.store.List(r.Context(), q)
	httputil.WriteJSON(w, http.StatusOK, domain.ListResponse{
		Data:       brands,
		Pagination: domain.NewPagination(total, q.Page.Page, q.Page.Limit),
	})
}

// GetBrand handles GET /api/brands/{id}. The id may also be a slug.
func (h *Handler) GetBrand(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

// CreateBrand handles POST /api/brands.
func (h *Handler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var in domain.BrandInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	h.create(w, r, in, Images{})
}

// CreateBrandWithImages handles POST /api/brands/with-images.
func (h *Handler) CreateBrandWithImages(w http.ResponseWriter, r *http.Request) {
	var in domain.BrandInput
	images, err := h.parseBrandForm(w, r, &in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.create(w, r, in, images)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, in domain.BrandInput, images Images) {
	in = in.Trimmed()
	if fe := in.Validate(); fe != nil {
		httputil.WriteError(w, r, apperrors.InvalidFields(fe), h.logger)
		return
	}

	b, err := h.store.Create(r.Context(), in, images)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.logger.InfoContext(r.Context(), "brand created",
		slog.String("brand_id", b.ID),
		slog.String("slug", b.Slug),
	)
	httputil.WriteJSON(w, http.StatusCreated, b)
}

// ReplaceBrand handles PUT /api/brands/{id}.
func (h *Handler) ReplaceBrand(w http.ResponseWriter, r *http.Request) {
	var in domain.BrandInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	in = in.Trimmed()
	if fe := in.Validate(); fe != nil {
		httputil.WriteError(w, r, apperrors.InvalidFields(fe), h.logger)
		return
	}

	b, err := h.store.Replace(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

// PatchBrand handles PATCH /api/brands/{id}.
func (h *Handler) PatchBrand(w http.ResponseWriter, r *http.Request) {
	var p domain.BrandPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body"), h.logger)
		return
	}
	h.patch(w, r, p, Images{})
}

// PatchBrandWithImages handles PATCH /api/brands/{id}/with-images.
func (h *Handler) PatchBrandWithImages(w http.ResponseWriter, r *http.Request) {
	var p domain.BrandPatch
	images, err := h.parseBrandForm(w, r, &p)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.patch(w, r, p, images)
}

func (h *Handler) patch(w http.ResponseWriter, r *http.Request, p domain.BrandPatch, images Images) {
	if fe := p.Validate(); fe != nil {
		httputil.WriteError(w, r, apperrors.InvalidFields(fe), h.logger)
		return
	}
	b, err := h.store.Patch(r.Context(), chi.URLParam(r, "id"), p, images)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

// DeactivateBrand handles DELETE /api/brands/{id} (soft delete).
func (h *Handler) DeactivateBrand(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Brand deactivated", Data: b})
}

// DeleteBrand handles DELETE /api/brands/{id}/hard.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.logger.InfoContext(r.Context(), "brand deleted", slog.String("brand_id", id))
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Brand permanently deleted", ID: id})
}

// Upload handles POST /api/upload with a single "image" file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	fhs := r.MultipartForm.File["image"]
	if len(fhs) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("image file is required"), h.logger)
		return
	}
	f := h.save(r, r.FormValue("destination"), fhs[0])
	httputil.WriteJSON(w, http.StatusOK, f)
}

// UploadMultiple handles POST /api/upload-multiple with repeated "images".
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	fhs := r.MultipartForm.File["images"]
	if len(fhs) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("at least one image is required"), h.logger)
		return
	}

	resp := multiUploadResponse{
		Files: make([]StoredFile, 0, len(fhs)),
		URLs:  make([]string, 0, len(fhs)),
	}
	dest := r.FormValue("destination")
	for _, fh := range fhs {
		f := h.save(r, dest, fh)
		resp.Files = append(resp.Files, f)
		resp.URLs = append(resp.URLs, f.URL)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseBrandForm reads brandData into dst and stores the logo, mainImage
// and galleryImages files.
func (h *Handler) parseBrandForm(w http.ResponseWriter, r *http.Request, dst any) (Images, error) {
	if err := parseForm(w, r); err != nil {
		return Images{}, err
	}
	if data := r.FormValue("brandData"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return Images{}, apperrors.InvalidInput("brandData must be valid JSON")
		}
	}

	var images Images
	form := r.MultipartForm.File
	if fhs := form["logo"]; len(fhs) > 0 {
		images.Logo = h.save(r, "logos", fhs[0]).URL
	}
	if fhs := form["mainImage"]; len(fhs) > 0 {
		images.MainImage = h.save(r, "brands", fhs[0]).URL
	}
	for _, fh := range form["galleryImages"] {
		images.Gallery = append(images.Gallery, h.save(r, "gallery", fh).URL)
	}
	return images, nil
}

func (h *Handler) save(r *http.Request, dest string, fh *multipart.FileHeader) StoredFile {
	return h.files.Save(r.Context(), dest, fh.Filename, fh.Header.Get("Content-Type"), fh.Size)
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.PayloadTooLarge("upload exceeds size limit")
		}
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrNotMultipart) {
			return apperrors.InvalidInput("multipart form expected")
		}
		return apperrors.InvalidInput("failed to parse multipart form: " + err.Error())
	}
	return nil
}
