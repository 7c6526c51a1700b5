// Package client is a typed wrapper over the admin proxy surface. Every
// method issues exactly one request and keeps no local state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atlasplast/brandadmin/internal/domain"
	"github.com/atlasplast/brandadmin/pkg/httpclient"
)

// APIError is returned for any non-2xx response. Message and Details are
// taken from the error envelope when the body carries one.
type APIError = httpclient.StatusError

// Client calls the brand endpoints under baseURL.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	token   TokenSource
}

// TokenSource returns the bearer token for the next request.
type TokenSource func(ctx context.Context) (string, error)

// Option configures a Client.
type Option func(*Client)

// WithBearerToken sends token in the Authorization header of every request.
func WithBearerToken(token string) Option {
	return WithTokenSource(func(context.Context) (string, error) { return token, nil })
}

// WithTokenSource asks src for a bearer token before every request.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) { c.token = src }
}

// New creates a Client. baseURL is the origin serving /api, for example
// "http://localhost:8080".
func New(baseURL string, doer httpclient.Doer, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBrands lists brands. Unset filter fields are not sent.
func (c *Client) GetBrands(ctx context.Context, f domain.ListFilter) (*domain.ListResponse, error) {
	path := "/api/brands"
	if q := f.Values().Encode(); q != "" {
		path += "?" + q
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	var out domain.ListResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode brand list: %w", err)
	}
	return &out, nil
}

// GetBrand fetches one brand by id or slug.
func (c *Client) GetBrand(ctx context.Context, identifier string) (*domain.Brand, error) {
	body, err := c.do(ctx, http.MethodGet, brandPath(identifier), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeBrand(body)
}

// CreateBrand creates a brand from a JSON body.
func (c *Client) CreateBrand(ctx context.Context, in domain.BrandInput) (*domain.Brand, error) {
	return c.sendJSON(ctx, http.MethodPost, "/api/brands", in)
}

// CreateBrandWithImages creates a brand together with its image files.
func (c *Client) CreateBrandWithImages(ctx context.Context, u BrandUpload) (*domain.Brand, error) {
	return c.sendBrandUpload(ctx, http.MethodPost, "/api/brands/with-images", u)
}

// UpdateBrand replaces the editable fields of brand id.
func (c *Client) UpdateBrand(ctx context.Context, id string, in domain.BrandInput) (*domain.Brand, error) {
	return c.sendJSON(ctx, http.MethodPut, brandPath(id), in)
}

// PatchBrand applies a partial update to brand id.
func (c *Client) PatchBrand(ctx context.Context, id string, p domain.BrandPatch) (*domain.Brand, error) {
	return c.sendJSON(ctx, http.MethodPatch, brandPath(id), p)
}

// UpdateBrandWithImages applies a partial update with image files.
func (c *Client) UpdateBrandWithImages(ctx context.Context, id string, u BrandUpload) (*domain.Brand, error) {
	return c.sendBrandUpload(ctx, http.MethodPatch, brandPath(id)+"/with-images", u)
}

// DeleteBrand soft-deletes brand id.
func (c *Client) DeleteBrand(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, brandPath(id), nil, "")
}

// HardDeleteBrand removes brand id permanently.
func (c *Client) HardDeleteBrand(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, brandPath(id)+"/hard", nil, "")
}

// UploadSingle uploads one file into destination.
func (c *Client) UploadSingle(ctx context.Context, f File, destination string) (json.RawMessage, error) {
	body, contentType, err := encodeUpload("image", []File{f}, destination)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/upload", body, contentType)
}

// UploadMultiple uploads files into destination in one request.
func (c *Client) UploadMultiple(ctx context.Context, files []File, destination string) (json.RawMessage, error) {
	body, contentType, err := encodeUpload("images", files, destination)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/upload-multiple", body, contentType)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, v any) (*domain.Brand, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	body, err := c.do(ctx, method, path, bytes.NewBuffer(payload), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeBrand(body)
}

func (c *Client) sendBrandUpload(ctx context.Context, method, path string, u BrandUpload) (*domain.Brand, error) {
	payload, contentType, err := u.encode()
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, method, path, payload, contentType)
	if err != nil {
		return nil, err
	}
	return decodeBrand(body)
}

// do sends one request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, body *bytes.Buffer, contentType string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != nil {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtain bearer token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode %s %s response: invalid JSON", method, path)
	}
	return data, nil
}

func brandPath(identifier string) string {
	return "/api/brands/" + url.PathEscape(identifier)
}

// decodeBrand accepts either a bare brand object or one wrapped in
// {"data": {...}}.
func decodeBrand(body []byte) (*domain.Brand, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode brand: %w", err)
	}
	if data := bytes.TrimSpace(env.Data); len(data) > 0 && data[0] == '{' {
		body = data
	}
	var b domain.Brand
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode brand: %w", err)
	}
	return &b, nil
}
