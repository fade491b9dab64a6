package types

// PageRequest is a normalized pagination request produced by the pagination
// package. Page is zero-based, Size is bounded, and OrderBy is a validated
// database column.
type PageRequest struct {
	Page    int
	Size    int
	OrderBy string
	Desc    bool
}

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is the envelope wrapping any list result with pagination metadata.
// The field set is part of the wire contract and must not change.
type Page[T any] struct {
	Content     []T   `json:"content"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}
