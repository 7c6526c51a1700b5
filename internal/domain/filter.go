package domain

import (
	"net/url"
	"strconv"

	"github.com/atlasplast/brandadmin/pkg/pagination"
)

// ListFilter selects a page of brands. Zero values are left out of the
// query string entirely.
type ListFilter struct {
	Page     int
	Limit    int
	Search   string
	IsActive *bool
}

// Values encodes f as query parameters.
func (f ListFilter) Values() url.Values {
	v := url.Values{}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	return v
}

// Pagination describes the page returned by a list call.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// NewPagination computes the page count for total items.
func NewPagination(total, page, limit int) Pagination {
	return Pagination{
		Current: page,
		Pages:   pagination.Pages(total, limit),
		Total:   total,
		Limit:   limit,
	}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool { return p.Current < p.Pages }

// ListResponse is the body of a list call.
type ListResponse struct {
	Data       []Brand    `json:"data"`
	Pagination Pagination `json:"pagination"`
}
