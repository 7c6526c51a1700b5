package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/pkg/logger"
)

type listRow struct {
	Brand domain.Brand
	Token string
}

type listView struct {
	Rows       []listRow
	Pagination domain.Pagination
	Search     string
	Inactive   bool
	PrevURL    string
	NextURL    string
	ToggleURL  string
	ReturnURL  string
}

// ListBrands handles GET /.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}
	search := strings.TrimSpace(q.Get("search"))
	inactive := q.Get("status") == "inactive"
	active := !inactive

	view := listView{
		Search:     search,
		Inactive:   inactive,
		Pagination: domain.Pagination{Current: page, Limit: PageSize},
		ReturnURL:  r.URL.RequestURI(),
	}
	data := pageData{Title: "Brands", Flash: popFlash(w, r), View: &view}

	resp, err := h.api.GetBrands(r.Context(), domain.ListFilter{
		Page:     page,
		Limit:    PageSize,
		Search:   search,
		IsActive: &active,
	})
	if err != nil {
		h.logAPIError(r, "list brands failed", err)
		data.Flash = errorFlash("Failed to fetch brands")
	} else {
		view.Pagination = resp.Pagination
		view.Rows = make([]listRow, 0, len(resp.Data))
		for _, b := range resp.Data {
			view.Rows = append(view.Rows, listRow{Brand: b, Token: uuid.NewString()})
		}
	}

	if view.Pagination.HasPrev() {
		view.PrevURL = listURL(view.Pagination.Current-1, search, inactive)
	}
	if view.Pagination.HasNext() {
		view.NextURL = listURL(view.Pagination.Current+1, search, inactive)
	}
	view.ToggleURL = listURL(1, search, !inactive)

	h.render(w, r, http.StatusOK, "list", data)
}

func listURL(page int, search string, inactive bool) string {
	v := url.Values{}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if search != "" {
		v.Set("search", search)
	}
	if inactive {
		v.Set("status", "inactive")
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

// DeleteBrand handles POST /brands/{id}/delete.
func (h *Handler) DeleteBrand(w http.ResponseWriter, r *http.Request) {
	h.guarded(w, r, "delete", guardedMessages{
		success:   "Brand deleted successfully",
		failure:   "Failed to delete brand",
		duplicate: "Brand already deleted",
	}, func(ctx context.Context, id string) (any, error) {
		return h.api.DeleteBrand(ctx, id)
	})
}

// HardDeleteBrand handles POST /brands/{id}/hard-delete.
func (h *Handler) HardDeleteBrand(w http.ResponseWriter, r *http.Request) {
	h.guarded(w, r, "hard-delete", guardedMessages{
		success:   "Brand permanently deleted",
		failure:   "Failed to permanently delete brand",
		duplicate: "Brand already deleted",
	}, func(ctx context.Context, id string) (any, error) {
		return h.api.HardDeleteBrand(ctx, id)
	})
}

// RestoreBrand handles POST /brands/{id}/restore, reactivating a
// soft-deleted brand.
func (h *Handler) RestoreBrand(w http.ResponseWriter, r *http.Request) {
	h.guarded(w, r, "restore", guardedMessages{
		success:   "Brand restored successfully",
		failure:   "Failed to restore brand",
		duplicate: "Brand already restored",
	}, func(ctx context.Context, id string) (any, error) {
		active := true
		return h.api.PatchBrand(ctx, id, domain.BrandPatch{IsActive: &active})
	})
}

type guardedMessages struct {
	success   string
	failure   string
	duplicate string
}

// guarded runs a one-shot row action behind the idempotency guard and
// redirects back to the list with a flash.
func (h *Handler) guarded(w http.ResponseWriter, r *http.Request, action string, msgs guardedMessages, fn func(ctx context.Context, id string) (any, error)) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, "/", errorFlash(msgs.failure))
		return
	}
	back := safeReturn(r.PostFormValue("return"))

	_, duplicate, err := h.guard.Do(r.Context(), r.PostFormValue("token"), action+":"+id,
		func(ctx context.Context) (any, error) { return fn(ctx, id) })
	switch {
	case duplicate:
		redirectWithFlash(w, r, back, infoFlash(msgs.duplicate))
	case err != nil:
		h.logAPIError(r, action+" brand failed", err, slog.String("brand_id", id))
		redirectWithFlash(w, r, back, errorFlash(msgs.failure))
	default:
		logger.WithContext(r.Context(), h.logger).InfoContext(r.Context(), "brand "+action,
			slog.String("brand_id", id))
		redirectWithFlash(w, r, back, successFlash(msgs.success))
	}
}

// safeReturn accepts only local absolute paths.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

func (h *Handler) logAPIError(r *http.Request, msg string, err error, attrs ...any) {
	args := append([]any{slog.String("error", err.Error())}, attrs...)
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		args = append(args, slog.Int("status", apiErr.StatusCode))
	}
	logger.WithContext(r.Context(), h.logger).WarnContext(r.Context(), msg, args...)
}
