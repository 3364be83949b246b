// Package paginator slices ordered sequences into fixed-size pages.
package paginator

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for a page outside [1, Total] of a non-empty source
// and for a page size below one.
var ErrOutOfRange = errors.New("paginator: page out of range")

// Page is one window of a source sequence. Number is 1-based.
type Page[T any] struct {
	Items       []T
	Number      int
	Total       int
	HasPrevious bool
	HasNext     bool
}

// Pages returns ceil(n/size), or 0 for an empty source.
func Pages(n, size int) int {
	if n <= 0 || size < 1 {
		return 0
	}
	return (n + size - 1) / size
}

// Clamp moves page into [1, total]. A zero total yields 1.
func Clamp(page, total int) int {
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the items of page number page, using the window
// [(page-1)*size, page*size). An empty source yields an empty page with Total 0.
func Paginate[T any](items []T, page, size int) (Page[T], error) {
	if size < 1 {
		return Page[T]{}, fmt.Errorf("%w: size %d", ErrOutOfRange, size)
	}
	total := Pages(len(items), size)
	if total == 0 {
		return Page[T]{Number: page}, nil
	}
	if page < 1 || page > total {
		return Page[T]{}, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, total)
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return Page[T]{
		Items:       items[start:end:end],
		Number:      page,
		Total:       total,
		HasPrevious: page > 1,
		HasNext:     page < total,
	}, nil
}
