package entities

import "fmt"

// PageRequest is a validated 1-indexed page selection.
type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest validates page and pageSize. A pageSize above maxPageSize
// is clamped rather than rejected; maxPageSize <= 0 disables the clamp.
func NewPageRequest(page, pageSize, maxPageSize int) (PageRequest, error) {
	if page < 1 {
		return PageRequest{}, fmt.Errorf("page must be >= 1, got %d: %w", page, ErrInvalidPagination)
	}
	if pageSize < 1 {
		return PageRequest{}, fmt.Errorf("pageSize must be >= 1, got %d: %w", pageSize, ErrInvalidPagination)
	}
	if maxPageSize > 0 && pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}, nil
}

// Offset returns the zero-indexed position of the page's first item.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size.
func (p PageRequest) Limit() int {
	return p.PageSize
}

// Page is one page of a filtered result set.
// Total counts the whole filtered set, independent of the page.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// NewPage builds a page, substituting an empty slice for nil items.
func NewPage[T any](req PageRequest, items []T, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: req.Page, PageSize: req.PageSize}
}

// TotalPages returns the number of pages needed to hold Total items.
func (p *Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// SlicePage returns the window of items selected by req.
// An offset past the end yields an empty slice.
func SlicePage[T any](items []T, req PageRequest) []T {
	start := req.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + req.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
