package web

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/atlasplast/brandadmin/internal/client"
)

var errMalformedStaged = errors.New("malformed staged image")

// stagedFile is an image chosen on an earlier render of the same form. It
// travels in a hidden input as a data: URL until the brand is saved, so add
// and remove ops and failed saves do not lose it.
type stagedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Value is the hidden input encoding:
// data:<type>;name=<query-escaped name>;base64,<data>.
func (f stagedFile) Value() string {
	return "data:" + f.ContentType + ";name=" + url.QueryEscape(f.Name) +
		";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Preview is an img src for image files and empty otherwise.
func (f stagedFile) Preview() template.URL {
	if !strings.HasPrefix(f.ContentType, "image/") {
		return ""
	}
	return template.URL("data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data))
}

func (f stagedFile) file() client.File {
	return client.File{Name: f.Name, ContentType: f.ContentType, Body: bytes.NewReader(f.Data)}
}

func parseStaged(raw string) (stagedFile, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return stagedFile{}, errMalformedStaged
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return stagedFile{}, errMalformedStaged
	}
	params := strings.Split(header, ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return stagedFile{}, errMalformedStaged
	}

	f := stagedFile{ContentType: mediaType(params[0])}
	for _, p := range params[1 : len(params)-1] {
		if name, ok := strings.CutPrefix(p, "name="); ok {
			n, err := url.QueryUnescape(name)
			if err != nil {
				return stagedFile{}, fmt.Errorf("%w: %v", errMalformedStaged, err)
			}
			f.Name = n
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return stagedFile{}, fmt.Errorf("%w: %v", errMalformedStaged, err)
	}
	f.Data = data
	return f, nil
}

// mediaType reduces a Content-Type to its bare type/subtype.
func mediaType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !strings.Contains(mt, "/") {
		return "application/octet-stream"
	}
	return mt
}

// stagedImages are the files a save will send.
type stagedImages struct {
	Logo      *stagedFile
	MainImage *stagedFile
	Gallery   []stagedFile
}

func (s stagedImages) upload() client.BrandUpload {
	var u client.BrandUpload
	if s.Logo != nil {
		f := s.Logo.file()
		u.Logo = &f
	}
	if s.MainImage != nil {
		f := s.MainImage.file()
		u.MainImage = &f
	}
	for _, g := range s.Gallery {
		u.Gallery = append(u.Gallery, g.file())
	}
	return u
}

// stageFiles collects the images for this submission. A file chosen now
// replaces the one carried over from an earlier render; a new gallery
// selection replaces the whole carried gallery. r's form must already be
// parsed.
func stageFiles(r *http.Request) (stagedImages, error) {
	var s stagedImages
	if raw := r.FormValue("staged.logo"); raw != "" {
		f, err := parseStaged(raw)
		if err != nil {
			return s, fmt.Errorf("logo: %w", err)
		}
		s.Logo = &f
	}
	if raw := r.FormValue("staged.mainImage"); raw != "" {
		f, err := parseStaged(raw)
		if err != nil {
			return s, fmt.Errorf("mainImage: %w", err)
		}
		s.MainImage = &f
	}
	for _, raw := range r.Form["staged.galleryImages"] {
		f, err := parseStaged(raw)
		if err != nil {
			return s, fmt.Errorf("galleryImages: %w", err)
		}
		s.Gallery = append(s.Gallery, f)
	}

	if r.MultipartForm == nil {
		return s, nil
	}
	files := r.MultipartForm.File
	if fhs := files["logo"]; len(fhs) > 0 {
		f, err := readFile(fhs[0])
		if err != nil {
			return s, err
		}
		if f != nil {
			s.Logo = f
		}
	}
	if fhs := files["mainImage"]; len(fhs) > 0 {
		f, err := readFile(fhs[0])
		if err != nil {
			return s, err
		}
		if f != nil {
			s.MainImage = f
		}
	}
	var gallery []stagedFile
	for _, fh := range files["galleryImages"] {
		f, err := readFile(fh)
		if err != nil {
			return s, err
		}
		if f != nil {
			gallery = append(gallery, *f)
		}
	}
	if len(gallery) > 0 {
		s.Gallery = gallery
	}
	return s, nil
}

// readFile loads one uploaded part. Browsers submit an empty part for a
// file input left blank; those yield nil.
func readFile(fh *multipart.FileHeader) (*stagedFile, error) {
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return &stagedFile{Name: fh.Filename, ContentType: mediaType(ct), Data: data}, nil
}
