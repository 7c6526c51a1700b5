package devbackend

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/pkg/httputil"
)

func newTestBackend(t *testing.T) (http.Handler, *Store, *FileStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore()
	files := NewFileStore()
	return NewRouter(NewHandler(store, files, logger), logger), store, files
}

func do(h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestHandler_CreateAndGet(t *testing.T) {
	h, _, _ := newTestBackend(t)

	rr := do(h, http.MethodPost, "/api/brands", jsonBody(t, sampleInput("acme")), "application/json")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created domain.Brand
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Contains(t, rr.Body.String(), `"_id"`)

	rr = do(h, http.MethodGet, "/api/brands/acme", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.Brand
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestHandler_WithImagesSlugIsReadable(t *testing.T) {
	h, _, _ := newTestBackend(t)

	rr := do(h, http.MethodPost, "/api/brands", jsonBody(t, sampleInput("with-images")), "application/json")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/brands/with-images", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"slug":"with-images"`)
}

func TestHandler_Create_ValidationMessages(t *testing.T) {
	h, store, _ := newTestBackend(t)
	in := sampleInput("Bad Slug")
	in.Name = "  "

	rr := do(h, http.MethodPost, "/api/brands", jsonBody(t, in), "application/json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	e := decodeError(t, rr)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
	assert.Equal(t, "Brand name is required", e.Fields["name"])
	assert.Equal(t, "Slug can only contain lowercase letters, numbers, and hyphens", e.Fields["slug"])
	assert.Equal(t, 0, store.Len())
}

func TestHandler_Create_DuplicateSlug(t *testing.T) {
	h, _, _ := newTestBackend(t)
	do(h, http.MethodPost, "/api/brands", jsonBody(t, sampleInput("acme")), "application/json")

	rr := do(h, http.MethodPost, "/api/brands", jsonBody(t, sampleInput("acme")), "application/json")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandler_Create_InvalidJSON(t *testing.T) {
	h, _, _ := newTestBackend(t)
	rr := do(h, http.MethodPost, "/api/brands", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_List(t *testing.T) {
	h, store, _ := newTestBackend(t)
	seed(t, store, 15)

	rr := do(h, http.MethodGet, "/api/brands?page=2&limit=10&isActive=true", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp domain.ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, domain.Pagination{Current: 2, Pages: 2, Total: 15, Limit: 10}, resp.Pagination)
}

func TestHandler_List_HugePageIsEmpty(t *testing.T) {
	h, store, _ := newTestBackend(t)
	seed(t, store, 3)

	for _, page := range []string{"9223372036854775807", "99999999999999999999999"} {
		rr := do(h, http.MethodGet, "/api/brands?page="+page, nil, "")
		require.Equal(t, http.StatusOK, rr.Code, page)

		var resp domain.ListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data)
		assert.Equal(t, 3, resp.Pagination.Total)
	}
}

func TestHandler_List_BadIsActive(t *testing.T) {
	h, _, _ := newTestBackend(t)
	rr := do(h, http.MethodGet, "/api/brands?isActive=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_GetMissing(t *testing.T) {
	h, _, _ := newTestBackend(t)
	rr := do(h, http.MethodGet, "/api/brands/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rr).Code)
}

func TestHandler_PutAndPatch(t *testing.T) {
	h, store, _ := newTestBackend(t)
	b := seed(t, store, 1)[0]

	in := sampleInput("renamed")
	rr := do(h, http.MethodPut, "/api/brands/"+b.ID, jsonBody(t, in), "application/json")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(h, http.MethodPatch, "/api/brands/"+b.ID, strings.NewReader(`{"isActive":false}`), "application/json")
	require.Equal(t, http.StatusOK, rr.Code)

	got, err := store.Get(t.Context(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Slug)
	assert.False(t, got.IsActive)
}

func TestHandler_Patch_InvalidSlug(t *testing.T) {
	h, store, _ := newTestBackend(t)
	b := seed(t, store, 1)[0]

	rr := do(h, http.MethodPatch, "/api/brands/"+b.ID, strings.NewReader(`{"slug":"No Good"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_SoftAndHardDelete(t *testing.T) {
	h, store, _ := newTestBackend(t)
	b := seed(t, store, 1)[0]

	rr := do(h, http.MethodDelete, "/api/brands/"+b.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = do(h, http.MethodDelete, "/api/brands/"+b.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code, "soft delete is idempotent")

	rr = do(h, http.MethodGet, "/api/brands/"+b.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"isActive":false`)

	rr = do(h, http.MethodDelete, "/api/brands/"+b.ID+"/hard", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/api/brands/"+b.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func brandForm(t *testing.T, data string, files map[string][]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if data != "" {
		require.NoError(t, mw.WriteField("brandData", data))
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, _ = fw.Write([]byte("img"))
		}
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_CreateWithImages(t *testing.T) {
	h, _, files := newTestBackend(t)
	data, _ := json.Marshal(sampleInput("acme"))
	body, ct := brandForm(t, string(data), map[string][]string{
		"logo":          {"logo.png"},
		"mainImage":     {"main.jpg"},
		"galleryImages": {"a.jpg", "b.jpg"},
	})

	rr := do(h, http.MethodPost, "/api/brands/with-images", body, ct)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var b domain.Brand
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	assert.Regexp(t, `^/uploads/logos/.+\.png$`, b.Logo)
	assert.Regexp(t, `^/uploads/brands/.+\.jpg$`, b.MainImage)
	assert.Len(t, b.GalleryImages, 2)
	assert.Equal(t, 4, files.Len())
}

func TestHandler_PatchWithImages(t *testing.T) {
	h, store, _ := newTestBackend(t)
	b := seed(t, store, 1)[0]
	body, ct := brandForm(t, `{"name":"With Logo"}`, map[string][]string{"logo": {"l.png"}})

	rr := do(h, http.MethodPatch, "/api/brands/"+b.ID+"/with-images", body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got, _ := store.Get(t.Context(), b.ID)
	assert.Equal(t, "With Logo", got.Name)
	assert.NotEmpty(t, got.Logo)
}

func TestHandler_CreateWithImages_BadBrandData(t *testing.T) {
	h, _, _ := newTestBackend(t)
	body, ct := brandForm(t, `{not json`, nil)

	rr := do(h, http.MethodPost, "/api/brands/with-images", body, ct)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Upload(t *testing.T) {
	h, _, _ := newTestBackend(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("image", "x.png")
	_, _ = fw.Write([]byte("x"))
	_ = mw.WriteField("destination", "brands")
	require.NoError(t, mw.Close())

	rr := do(h, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var f StoredFile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &f))
	assert.Regexp(t, `^/uploads/brands/.+\.png$`, f.URL)
}

func TestHandler_UploadMultiple(t *testing.T) {
	h, _, _ := newTestBackend(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		fw, _ := mw.CreateFormFile("images", name)
		_, _ = fw.Write([]byte(name))
	}
	_ = mw.WriteField("destination", "gallery")
	require.NoError(t, mw.Close())

	rr := do(h, http.MethodPost, "/api/upload-multiple", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp multiUploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.URLs, 3)
	assert.Len(t, resp.Files, 3)
}

func TestHandler_Upload_MissingFile(t *testing.T) {
	h, _, _ := newTestBackend(t)
	rr := do(h, http.MethodPost, "/api/upload", strings.NewReader(""), "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
