package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one file part of a multipart request.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// BrandUpload is the body of the with-images endpoints. Data is encoded as
// JSON in the brandData field; it is usually a domain.BrandInput for create
// or a domain.BrandPatch for update.
type BrandUpload struct {
	Data      any
	Logo      *File
	MainImage *File
	Gallery   []File
}

// HasFiles reports whether u carries at least one file.
func (u BrandUpload) HasFiles() bool {
	return u.Logo != nil || u.MainImage != nil || len(u.Gallery) > 0
}

func (u BrandUpload) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	data, err := json.Marshal(u.Data)
	if err != nil {
		return nil, "", fmt.Errorf("marshal brandData: %w", err)
	}
	if err := mw.WriteField("brandData", string(data)); err != nil {
		return nil, "", fmt.Errorf("write brandData: %w", err)
	}
	if u.Logo != nil {
		if err := writeFile(mw, "logo", *u.Logo); err != nil {
			return nil, "", err
		}
	}
	if u.MainImage != nil {
		if err := writeFile(mw, "mainImage", *u.MainImage); err != nil {
			return nil, "", err
		}
	}
	for _, f := range u.Gallery {
		if err := writeFile(mw, "galleryImages", f); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func encodeUpload(field string, files []File, destination string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		if err := writeFile(mw, field, f); err != nil {
			return nil, "", err
		}
	}
	if destination != "" {
		if err := mw.WriteField("destination", destination); err != nil {
			return nil, "", fmt.Errorf("write destination: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(mw *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if f.Body != nil {
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("write %s part: %w", field, err)
		}
	}
	return nil
}
