// Package pagination implements the bounded page-number window used by all
// list endpoints: a page slice plus a window of clickable page links
// (default width 3) with flags indicating pages exist outside the window.
package pagination

import "math"

// DefaultWindow is the number of page links shown around the current page.
const DefaultWindow = 3

// Window describes the paging state returned alongside a page of results.
type Window struct {
	Pages       int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Range       []int `json:"range"`
	HasBefore   bool  `json:"has_before"`
	HasAfter    bool  `json:"has_after"`
}

// Make computes the window for a total item count. Page is clamped to
// [1, totalPages]; width is the number of page links in the range.
func Make(total int64, page, perPage, width int) Window {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	page = Clamp(page, totalPages)

	w := Window{
		Pages:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     perPage,
	}

	if totalPages <= width {
		for p := 1; p <= totalPages; p++ {
			w.Range = append(w.Range, p)
		}
		return w
	}

	middle := (width + 1) / 2
	start := page - middle
	if start < 0 {
		start = 0
	}
	stop := page + middle
	if stop > totalPages {
		stop = totalPages
	}
	if stop-start < width {
		start = stop - width
		if start < 0 {
			start = 0
		}
	}

	for p := start + 1; p <= stop; p++ {
		w.Range = append(w.Range, p)
	}
	w.HasBefore = start > 0
	w.HasAfter = stop < totalPages
	return w
}

// Clamp bounds a 1-based page number to the valid range.
func Clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Slice returns the items belonging to the given 1-based page.
func Slice[T any](items []T, page, perPage int) []T {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := int(math.Ceil(float64(len(items)) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}
	page = Clamp(page, totalPages)

	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
