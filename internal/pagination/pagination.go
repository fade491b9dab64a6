// Package pagination normalizes untrusted page/size/sort query parameters
// and builds the page envelope returned by every list endpoint.
//
// The normalization policy never rejects input: out-of-range values are
// clamped, unknown sort fields fall back to the default, and a page past the
// end of the data yields an empty content slice with truthful totals.
package pagination

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/life-master/apiserver/types"
)

const (
	DefaultSize = 10
	MaxSize     = 100
)

// Config describes how a particular resource kind sorts.
type Config struct {
	// DefaultSort is the database column used when sortBy is absent or
	// references an unknown field.
	DefaultSort string

	// Sortable maps accepted sortBy values to database columns.
	Sortable map[string]string
}

// Params carries raw, untrusted pagination input.
type Params struct {
	Page    string
	Size    string
	SortBy  string
	SortDir string
}

// ParamsFromRequest extracts the raw pagination query parameters.
func ParamsFromRequest(r *http.Request) Params {
	q := r.URL.Query()
	return Params{
		Page:    strings.TrimSpace(q.Get("page")),
		Size:    strings.TrimSpace(q.Get("size")),
		SortBy:  strings.TrimSpace(q.Get("sortBy")),
		SortDir: strings.TrimSpace(q.Get("sortDir")),
	}
}

// Normalize applies the clamping policy and resolves the sort column.
func Normalize(p Params, cfg Config) types.PageRequest {
	page := 0
	if v, err := strconv.Atoi(p.Page); err == nil && v > 0 {
		page = v
	}

	size := DefaultSize
	if v, err := strconv.Atoi(p.Size); err == nil && v > 0 {
		size = v
	}
	if size > MaxSize {
		size = MaxSize
	}

	orderBy := cfg.DefaultSort
	if col, ok := cfg.Sortable[p.SortBy]; ok {
		orderBy = col
	}

	desc := strings.EqualFold(p.SortDir, "desc")

	return types.PageRequest{
		Page:    page,
		Size:    size,
		OrderBy: orderBy,
		Desc:    desc,
	}
}

// FromRequest parses and normalizes in one step.
func FromRequest(r *http.Request, cfg Config) types.PageRequest {
	return Normalize(ParamsFromRequest(r), cfg)
}

// NewPage wraps a result slice in the pagination envelope. Content is never
// nil so it always serializes as a JSON array.
func NewPage[T any](content []T, req types.PageRequest, total int64) types.Page[T] {
	if content == nil {
		content = []T{}
	}
	return types.Page[T]{
		Content:     content,
		CurrentPage: req.Page,
		TotalItems:  total,
		TotalPages:  totalPages(total, req.Size),
	}
}

func totalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
