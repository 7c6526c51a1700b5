package proxy

import (
	"net/http"
	"slices"
	"strings"
)

// BodyMode selects how a request body is forwarded.
type BodyMode int

const (
	// Raw forwards the body bytes unchanged with the inbound Content-Type.
	Raw BodyMode = iota
	// Multipart parses the form and re-encodes it with a fresh boundary.
	Multipart
)

func (m BodyMode) String() string {
	if m == Multipart {
		return "multipart"
	}
	return "raw"
}

// Route is one exposed proxy path. Path is both the local chi pattern and
// the upstream path template; {id} is substituted with the escaped value.
type Route struct {
	Path           string
	Methods        []string
	Mode           BodyMode
	FailureMessage string
}

const fetchFailed = "Failed to fetch data from API"

// Routes is the proxy surface.
var Routes = []Route{
	{
		Path:           "/api/brands",
		Methods:        []string{http.MethodGet, http.MethodPost},
		Mode:           Raw,
		FailureMessage: fetchFailed,
	},
	{
		Path:           "/api/brands/with-images",
		Methods:        []string{http.MethodPost},
		Mode:           Multipart,
		FailureMessage: "Failed to create brand with images",
	},
	{
		Path:           "/api/brands/{id}",
		Methods:        []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete},
		Mode:           Raw,
		FailureMessage: fetchFailed,
	},
	{
		Path:           "/api/brands/{id}/with-images",
		Methods:        []string{http.MethodPatch},
		Mode:           Multipart,
		FailureMessage: "Failed to update brand with images",
	},
	{
		Path:           "/api/brands/{id}/hard",
		Methods:        []string{http.MethodDelete},
		Mode:           Raw,
		FailureMessage: fetchFailed,
	},
	{
		Path:           "/api/upload",
		Methods:        []string{http.MethodPost},
		Mode:           Multipart,
		FailureMessage: "Failed to upload file",
	},
	{
		Path:           "/api/upload-multiple",
		Methods:        []string{http.MethodPost},
		Mode:           Multipart,
		FailureMessage: "Failed to upload multiple files",
	},
}

func (rt Route) allows(method string) bool {
	return slices.Contains(rt.Methods, method)
}

// shadowedID reports whether the literal path rt wins over the parameterized
// route param for the same URL, and returns the segment standing in for {id}.
func (rt Route) shadowedID(param Route) (string, bool) {
	if rt.Path == param.Path || strings.Contains(rt.Path, "{") {
		return "", false
	}
	lit, pat := strings.Split(rt.Path, "/"), strings.Split(param.Path, "/")
	if len(lit) != len(pat) {
		return "", false
	}
	id := ""
	for i := range lit {
		switch {
		case lit[i] == pat[i]:
		case pat[i] == "{id}" && id == "":
			id = lit[i]
		default:
			return "", false
		}
	}
	return id, id != ""
}
