// Package listutil parses the page, sort, search and filter parameters shared
// by every admin list page and computes pagination metadata.
package listutil

import (
	"net/url"
	"strconv"

	"marketadmin/internal/adapters/storage"
)

// DefaultPerPage is used when neither the request nor business settings name
// an allowed page size.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// Spec describes what a list page accepts.
type Spec struct {
	SortColumns    map[string]string // request name -> SQL column
	Filters        []string          // accepted filter parameter names
	DefaultPerPage int               // from business settings; 0 means DefaultPerPage
}

// Params carries the parsed list parameters of one request.
type Params struct {
	Page    int
	PerPage int
	Sort    string // empty when the request named no allowed column
	Dir     string // "asc" or "desc"
	Search  string
	Filters map[string]string
}

// Parse extracts list parameters from URL query values.
// PRE: none
// POST: Page >= 1, PerPage is one of PerPageOptions, Sort is empty or a key of
// spec.SortColumns, Dir is asc or desc, Filters holds only spec.Filters keys
func Parse(q url.Values, spec Spec) Params {
	p := Params{
		Search:  q.Get("q"),
		Filters: make(map[string]string),
	}

	p.Page, _ = strconv.Atoi(q.Get("page"))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if !IsValidPerPage(p.PerPage) {
		p.PerPage = spec.DefaultPerPage
		if !IsValidPerPage(p.PerPage) {
			p.PerPage = DefaultPerPage
		}
	}

	if _, ok := spec.SortColumns[q.Get("sort")]; ok {
		p.Sort = q.Get("sort")
	}
	p.Dir = q.Get("dir")
	if p.Dir != "asc" && p.Dir != "desc" {
		p.Dir = "asc"
	}

	for _, key := range spec.Filters {
		if v := q.Get(key); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// Filter returns the value of a filter, or "" when absent.
func (p Params) Filter(key string) string {
	return p.Filters[key]
}

// Options converts the parameters to storage list options for the page
// described by info.
// PRE: info was computed from the total matching rows
func (p Params) Options(info PageInfo) storage.ListOptions {
	return storage.ListOptions{
		Search: p.Search,
		Sort:   p.Sort,
		Dir:    p.Dir,
		Limit:  info.PerPage,
		Offset: info.Offset(),
	}
}

// Query encodes the parameters back into a query string. Pairs in overrides
// replace the current values; an empty value drops the key.
// PRE: len(overrides) is even
func (p Params) Query(overrides ...string) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("page", strconv.Itoa(p.Page))
	set("per_page", strconv.Itoa(p.PerPage))
	set("sort", p.Sort)
	set("dir", p.Dir)
	set("q", p.Search)
	for k, val := range p.Filters {
		set(k, val)
	}
	for i := 0; i+1 < len(overrides); i += 2 {
		v.Del(overrides[i])
		set(overrides[i], overrides[i+1])
	}
	return v.Encode()
}

// NextDir returns the direction a header link for col should request: the
// opposite of the active direction when col is already sorted, asc otherwise.
func (p Params) NextDir(col string) string {
	if p.Sort == col && p.Dir == "asc" {
		return "desc"
	}
	return "asc"
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // max(1, ceil(Total / PerPage))
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// PageNumbers returns at most 5 page numbers centered on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(p.Page-maxButtons/2, 1)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(end-maxButtons+1, 1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// ShowPagination returns true if pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

// IsValidPerPage reports whether n is one of PerPageOptions.
func IsValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
