// Package catalog computes paginated views of the product catalog.
package catalog

// Page is a window over an ordered item list.
type Page[T any] struct {
	Items       []T
	HasPrevious bool
	HasNext     bool
}

// Paginate returns the pageIndex-th window of at most pageSize items.
// A pageSize <= 0 means pagination is unset and the full list is returned.
// An index past the last page yields an empty page with HasPrevious set.
func Paginate[T any](items []T, pageSize, pageIndex int) Page[T] {
	if pageSize <= 0 || len(items) <= pageSize {
		return Page[T]{Items: items}
	}
	if pageIndex < 0 {
		pageIndex = 0
	}

	start := pageIndex * pageSize
	if start > len(items) {
		start = len(items)
	}
	rest := items[start:]

	page := Page[T]{HasPrevious: pageIndex > 0}
	if len(rest) > pageSize {
		page.Items = rest[:pageSize]
		page.HasNext = true
		return page
	}
	page.Items = rest
	return page
}
