package web

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atlasplast/brandadmin/internal/client"
	"github.com/atlasplast/brandadmin/internal/domain"
)

func validForm() url.Values {
	return url.Values{
		"name":           {"  Atlas Plast "},
		"slug":           {"atlas-plast"},
		"website":        {"https://atlas.example"},
		"established":    {"1998"},
		"origin.en":      {"Turkey"},
		"origin.ar":      {"تركيا"},
		"description.en": {"Pipes"},
		"description.ar": {"أنابيب"},
		"products.en":    {"PVC", "PPR"},
		"products.ar":    {"بي في سي"},
		"op":             {"save"},
	}
}

func multipartForm(t *testing.T, form url.Values, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestNewBrand_RendersEmptyForm(t *testing.T) {
	h, _ := newTestServer(t)

	rr := get(h, "/create-brand")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `action="/create-brand"`)
	assert.Contains(t, body, "Products (English)")
	assert.Contains(t, body, "Brand Advantages (Arabic)")
	assert.Contains(t, body, `value="add:products:en"`)
	assert.NotContains(t, body, "current.logo")
	assert.Contains(t, body, `<script src="/static/admin.js" defer></script>`)
}

func TestStatic_AdminScript(t *testing.T) {
	h, _ := newTestServer(t)

	rr := get(h, "/static/admin.js")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rr.Body.String(), "URL.createObjectURL")
}

func TestSubmitNewBrand_AddItemDoesNotCallAPI(t *testing.T) {
	h, api := newTestServer(t)
	form := validForm()
	form.Set("new.brandAdvantages.en", "  Durable ")
	form.Set("op", "add:brandAdvantages:en")

	rr := postForm(h, "/create-brand", form)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `name="brandAdvantages.en" value="Durable"`)
	assert.Contains(t, body, `name="products.en" value="PVC"`)
	assert.Contains(t, body, `name="products.en" value="PPR"`)
	assert.Contains(t, body, `name="new.brandAdvantages.en" value=""`)
	api.AssertNotCalled(t, "CreateBrand", mock.Anything, mock.Anything)
}

func TestSubmitNewBrand_AddBlankItemIsIgnored(t *testing.T) {
	h, _ := newTestServer(t)
	form := validForm()
	form.Set("new.products.ar", "   ")
	form.Set("op", "add:products:ar")

	rr := postForm(h, "/create-brand", form)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="products.ar"`)
	assert.NotContains(t, rr.Body.String(), `name="products.ar" value=""`)
}

func TestSubmitNewBrand_RemoveItem(t *testing.T) {
	h, _ := newTestServer(t)
	form := validForm()
	form.Set("op", "remove:products:en:0")

	rr := postForm(h, "/create-brand", form)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, `name="products.en" value="PVC"`)
	assert.Contains(t, body, `name="products.en" value="PPR"`)
}

func TestSubmitNewBrand_MalformedOp(t *testing.T) {
	h, _ := newTestServer(t)
	form := validForm()
	form.Set("op", "remove:products:en")

	rr := postForm(h, "/create-brand", form)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitNewBrand_ValidationBlocksRequest(t *testing.T) {
	h, api := newTestServer(t)
	form := validForm()
	form.Set("slug", "")
	form.Set("origin.ar", " ")
	form.Set("established", "98")

	rr := postForm(h, "/create-brand", form)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Slug is required")
	assert.Contains(t, body, "Arabic origin is required")
	assert.Contains(t, body, "Established year must be 4 digits")
	assert.Contains(t, body, "Suggested slug: <code>atlas-plast</code>")
	assert.Contains(t, body, `value="  Atlas Plast "`)
	api.AssertNotCalled(t, "CreateBrand", mock.Anything, mock.Anything)
}

func TestSubmitNewBrand_BadSlugNoSuggestion(t *testing.T) {
	h, _ := newTestServer(t)
	form := validForm()
	form.Set("slug", "Atlas Plast")

	rr := postForm(h, "/create-brand", form)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Slug can only contain lowercase letters, numbers, and hyphens")
	assert.NotContains(t, rr.Body.String(), "Suggested slug")
}

func TestSubmitNewBrand_CreatesWithJSON(t *testing.T) {
	h, api := newTestServer(t)
	created := sampleBrand("b1")
	api.On("CreateBrand", mock.Anything, mock.MatchedBy(func(in domain.BrandInput) bool {
		return in.Name == "Atlas Plast" && in.Slug == "atlas-plast" &&
			assert.ObjectsAreEqual([]string{"PVC", "PPR"}, in.Products.En) &&
			len(in.BrandAdvantages.En) == 0
	})).Return(&created, nil).Once()

	rr := postForm(h, "/create-brand", validForm())

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, "Brand created successfully", flashOf(t, rr).Message)
}

func TestSubmitNewBrand_CreatesWithImages(t *testing.T) {
	h, api := newTestServer(t)
	created := sampleBrand("b1")
	api.On("CreateBrandWithImages", mock.Anything, mock.MatchedBy(func(u client.BrandUpload) bool {
		in, ok := u.Data.(domain.BrandInput)
		if !ok || in.Slug != "atlas-plast" || u.Logo == nil || u.MainImage != nil || len(u.Gallery) != 0 {
			return false
		}
		data, err := io.ReadAll(u.Logo.Body)
		return err == nil && string(data) == "logo-bytes" && u.Logo.Name == "logo.png"
	})).Return(&created, nil).Once()

	body, ct := multipartForm(t, validForm(), map[string]string{"logo": "logo-bytes"})
	req := httptest.NewRequest(http.MethodPost, "/create-brand", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	api.AssertNotCalled(t, "CreateBrand", mock.Anything, mock.Anything)
}

func TestSubmitNewBrand_MultipartWithoutFilesUsesJSON(t *testing.T) {
	h, api := newTestServer(t)
	created := sampleBrand("b1")
	api.On("CreateBrand", mock.Anything, mock.Anything).Return(&created, nil).Once()

	body, ct := multipartForm(t, validForm(), nil)
	req := httptest.NewRequest(http.MethodPost, "/create-brand", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestSubmitNewBrand_APIErrorKeepsState(t *testing.T) {
	h, api := newTestServer(t)
	api.On("CreateBrand", mock.Anything, mock.Anything).
		Return(nil, &client.APIError{StatusCode: 409, Message: "Slug already exists"}).Once()

	rr := postForm(h, "/create-brand", validForm())

	require.Equal(t, http.StatusBadGateway, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Slug already exists")
	assert.Contains(t, body, "toast-error")
	assert.Contains(t, body, `value="atlas-plast"`)
	assert.Contains(t, body, `name="products.en" value="PPR"`)
}

func TestSubmitNewBrand_APIErrorFallbackMessage(t *testing.T) {
	h, api := newTestServer(t)
	api.On("CreateBrand", mock.Anything, mock.Anything).Return(nil, io.ErrUnexpectedEOF).Once()

	rr := postForm(h, "/create-brand", validForm())

	assert.Contains(t, rr.Body.String(), "Failed to create brand")
}

func TestEditBrand_Prefills(t *testing.T) {
	h, api := newTestServer(t)
	b := sampleBrand("b1")
	b.Logo = "/uploads/logos/l.png"
	b.GalleryImages = []string{"/uploads/gallery/g1.png"}
	b.Products = domain.LocalizedList{En: []string{"PVC"}, Ar: []string{}}
	api.On("GetBrand", mock.Anything, "b1").Return(&b, nil).Once()

	rr := get(h, "/edit-brand/b1")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `action="/edit-brand/b1"`)
	assert.Contains(t, body, `value="Atlas b1"`)
	assert.Contains(t, body, `name="products.en" value="PVC"`)
	assert.Contains(t, body, `name="current.logo" value="/uploads/logos/l.png"`)
	assert.Contains(t, body, `name="current.galleryImages" value="/uploads/gallery/g1.png"`)
	assert.Contains(t, body, "Update Brand")
}

func TestEditBrand_LoadFailureRedirects(t *testing.T) {
	h, api := newTestServer(t)
	api.On("GetBrand", mock.Anything, "missing").
		Return(nil, &client.APIError{StatusCode: 500, Message: "Failed to fetch data from API"}).Once()

	rr := get(h, "/edit-brand/missing")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Equal(t, "Failed to fetch brand", flashOf(t, rr).Message)
}

func TestSubmitEditBrand_UpdatesWithJSON(t *testing.T) {
	h, api := newTestServer(t)
	updated := sampleBrand("b1")
	api.On("UpdateBrand", mock.Anything, "b1", mock.MatchedBy(func(in domain.BrandInput) bool {
		return in.Slug == "atlas-plast"
	})).Return(&updated, nil).Once()

	form := validForm()
	form.Set("current.logo", "/uploads/logos/l.png")
	rr := postForm(h, "/edit-brand/b1", form)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "Brand updated successfully", flashOf(t, rr).Message)
}

func TestSubmitEditBrand_UpdatesWithImages(t *testing.T) {
	h, api := newTestServer(t)
	updated := sampleBrand("b1")
	api.On("UpdateBrandWithImages", mock.Anything, "b1", mock.MatchedBy(func(u client.BrandUpload) bool {
		p, ok := u.Data.(domain.BrandPatch)
		return ok && p.Slug != nil && *p.Slug == "atlas-plast" && len(u.Gallery) == 1
	})).Return(&updated, nil).Once()

	body, ct := multipartForm(t, validForm(), map[string]string{"galleryImages": "g"})
	req := httptest.NewRequest(http.MethodPost, "/edit-brand/b1", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestSubmitEditBrand_APIErrorKeepsCurrentImages(t *testing.T) {
	h, api := newTestServer(t)
	api.On("UpdateBrand", mock.Anything, "b1", mock.Anything).Return(nil, io.ErrUnexpectedEOF).Once()

	form := validForm()
	form.Set("current.mainImage", "/uploads/brands/m.png")
	rr := postForm(h, "/edit-brand/b1", form)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to update brand")
	assert.Contains(t, rr.Body.String(), `name="current.mainImage" value="/uploads/brands/m.png"`)
}

func postMultipart(t *testing.T, h http.Handler, target string, form url.Values, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartForm(t, form, files)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const pngBytes = "\x89PNG\r\n\x1a\nlogo"

func TestSubmitNewBrand_AddItemKeepsChosenLogo(t *testing.T) {
	h, api := newTestServer(t)
	form := validForm()
	form.Set("new.products.en", "HDPE")
	form.Set("op", "add:products:en")

	rr := postMultipart(t, h, "/create-brand", form, map[string]string{"logo": pngBytes})

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	encoded := base64.StdEncoding.EncodeToString([]byte(pngBytes))
	assert.Contains(t, body, `name="staged.logo" value="data:image/png;name=logo.png;base64,`+encoded)
	assert.Contains(t, body, `src="data:image/png;base64,`+encoded)
	assert.Contains(t, body, `name="products.en" value="HDPE"`)
	api.AssertNotCalled(t, "CreateBrandWithImages", mock.Anything, mock.Anything)
}

func TestSubmitNewBrand_ValidationKeepsChosenGallery(t *testing.T) {
	h, _ := newTestServer(t)
	form := validForm()
	form.Set("slug", "")

	rr := postMultipart(t, h, "/create-brand", form, map[string]string{"galleryImages": pngBytes})

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="staged.galleryImages" value="data:image/png;name=galleryImages.png;base64,`)
}

func TestSubmitNewBrand_APIErrorKeepsChosenLogo(t *testing.T) {
	h, api := newTestServer(t)
	api.On("CreateBrandWithImages", mock.Anything, mock.Anything).
		Return(nil, &client.APIError{StatusCode: 500, Message: "Failed to create brand with images"}).Once()

	rr := postMultipart(t, h, "/create-brand", validForm(), map[string]string{"logo": pngBytes})

	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="staged.logo"`)
}

func TestSubmitNewBrand_SavesStagedLogo(t *testing.T) {
	h, api := newTestServer(t)
	created := sampleBrand("b1")
	api.On("CreateBrandWithImages", mock.Anything, mock.MatchedBy(func(u client.BrandUpload) bool {
		if u.Logo == nil || u.Logo.Name != "atlas logo.png" || u.Logo.ContentType != "image/png" {
			return false
		}
		data, err := io.ReadAll(u.Logo.Body)
		return err == nil && string(data) == pngBytes
	})).Return(&created, nil).Once()

	form := validForm()
	form.Set("staged.logo", stagedFile{Name: "atlas logo.png", ContentType: "image/png", Data: []byte(pngBytes)}.Value())
	rr := postForm(h, "/create-brand", form)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestSubmitEditBrand_NewFileReplacesStaged(t *testing.T) {
	h, api := newTestServer(t)
	updated := sampleBrand("b1")
	api.On("UpdateBrandWithImages", mock.Anything, "b1", mock.MatchedBy(func(u client.BrandUpload) bool {
		if u.Logo == nil || u.Logo.Name != "logo.png" || len(u.Gallery) != 1 || u.Gallery[0].Name != "old.png" {
			return false
		}
		data, err := io.ReadAll(u.Logo.Body)
		return err == nil && string(data) == "fresh"
	})).Return(&updated, nil).Once()

	form := validForm()
	form.Set("staged.logo", stagedFile{Name: "stale.png", ContentType: "image/png", Data: []byte("stale")}.Value())
	form.Set("staged.galleryImages", stagedFile{Name: "old.png", ContentType: "image/png", Data: []byte("g")}.Value())
	rr := postMultipart(t, h, "/edit-brand/b1", form, map[string]string{"logo": "fresh"})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestSubmitNewBrand_MalformedStagedImage(t *testing.T) {
	h, api := newTestServer(t)
	form := validForm()
	form.Set("staged.mainImage", "https://example.com/x.png")

	rr := postForm(h, "/create-brand", form)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	api.AssertNotCalled(t, "CreateBrand", mock.Anything, mock.Anything)
}

func TestParseStaged(t *testing.T) {
	in := stagedFile{Name: "a;b,c.png", ContentType: "image/png", Data: []byte{0, 1, 2, 250}}
	got, err := parseStaged(in.Value())
	require.NoError(t, err)
	assert.Equal(t, in, got)

	for _, raw := range []string{
		"",
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,AAAA",
		"data:image/png;base64,***",
		"data:image/png;name=%zz;base64,AAAA",
	} {
		_, err := parseStaged(raw)
		assert.ErrorIs(t, err, errMalformedStaged, raw)
	}

	got, err = parseStaged("data:text/html;charset=utf-8;base64,PGI+")
	require.NoError(t, err)
	assert.Equal(t, "text/html", got.ContentType)
	assert.Empty(t, got.Preview())
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "image/png", mediaType("image/PNG; foo=bar"))
	assert.Equal(t, "application/octet-stream", mediaType("png"))
	assert.Equal(t, "application/octet-stream", mediaType("image/png,text/html"))
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		raw     string
		want    formOp
		wantErr bool
	}{
		{raw: "", want: formOp{kind: "save"}},
		{raw: "save", want: formOp{kind: "save"}},
		{raw: "add:products:en", want: formOp{kind: "add", list: "products", lang: domain.English}},
		{raw: "remove:brandAdvantages:ar:2", want: formOp{kind: "remove", list: "brandAdvantages", lang: domain.Arabic, index: 2}},
		{raw: "add:colors:en", wantErr: true},
		{raw: "add:products:fr", wantErr: true},
		{raw: "remove:products:en:x", wantErr: true},
		{raw: "remove:products:en", wantErr: true},
		{raw: "add:products:en:1", wantErr: true},
		{raw: "explode", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOp(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
