package pagination

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit from overflowing.
	MaxPage = math.MaxInt / MaxLimit
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// DefaultParams returns page 1 with the default limit.
func DefaultParams() Params {
	return Params{Page: 1, Limit: DefaultLimit}
}

// FromRequest extracts page and limit from the query string. Invalid or
// out-of-range values fall back to the defaults; pages above MaxPage are
// clamped to it.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = min(v, MaxPage)
		} else if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(page, "-") {
			p.Page = MaxPage
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= MaxLimit {
			p.Limit = v
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Pages returns the number of pages needed for total items.
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return pages
}

// Bounds returns the [start, end) slice window for the page over n items.
// Pages past the end, and offsets that are negative, yield an empty window.
func (p Params) Bounds(n int) (start, end int) {
	start = p.Offset
	if start < 0 || start > n {
		start = n
	}
	end = n
	if p.Limit >= 0 && p.Limit < n-start {
		end = start + p.Limit
	}
	return start, end
}
