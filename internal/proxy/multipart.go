package proxy

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// reencodeMultipart parses r's multipart form and writes it again with a
// fresh boundary. Value fields come first, then files; both are ordered by
// field name and keep their in-field order.
func reencodeMultipart(r *http.Request, maxBytes int64) (*bytes.Buffer, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", fmt.Errorf("parse multipart form: %w", err)
	}
	form := r.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, name := range sortedKeys(form.Value) {
		for _, v := range form.Value[name] {
			if err := mw.WriteField(name, v); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", name, err)
			}
		}
	}
	for _, name := range sortedKeys(form.File) {
		for _, fh := range form.File[name] {
			if err := copyFilePart(mw, name, fh); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func copyFilePart(mw *multipart.Writer, field string, fh *multipart.FileHeader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(fh.Filename)))
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer src.Close()

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s part: %w", field, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
