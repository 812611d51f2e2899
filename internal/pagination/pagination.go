// Package pagination splits ordered collections into fixed-size, 1-based pages.
//
// Page numbers never cause errors: a missing or non-numeric number selects the
// first page, a number below 1 selects the first page and a number past the end
// selects the last page. An empty collection has a single empty page.
package pagination

import (
	"context"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one page of an ordered collection.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PageSize int
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages }

// HasPrevious reports whether an earlier page exists.
func (p Page[T]) HasPrevious() bool { return p.Number > 1 }

// Map returns the template view of the page.
func (p Page[T]) Map() map[string]interface{} {
	return map[string]interface{}{
		"items":           p.Items,
		"number":          p.Number,
		"num_pages":       p.NumPages,
		"count":           p.Count,
		"has_next":        p.HasNext(),
		"has_previous":    p.HasPrevious(),
		"next_number":     p.Number + 1,
		"previous_number": p.Number - 1,
	}
}

// ParseNumber reads a requested page number. Anything that is not an integer is page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages returns how many pages count items fill. It is never less than 1.
func NumPages(count int64, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(size) - 1) / int64(size))
}

// Clamp moves number into [1, numPages].
func Clamp(number, numPages int) int {
	if number < 1 {
		return 1
	}
	if numPages < 1 {
		numPages = 1
	}
	if number > numPages {
		return numPages
	}
	return number
}

// Window resolves the raw page number against count and returns the clamped
// page number, the row offset of its first item and the number of pages.
func Window(raw string, count int64, size int) (number, offset, numPages int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	numPages = NumPages(count, size)
	number = Clamp(ParseNumber(raw), numPages)
	return number, (number - 1) * size, numPages
}

// Paginate slices an already ordered in-memory collection.
func Paginate[T any](items []T, size int, raw string) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	count := int64(len(items))
	number, offset, numPages := Window(raw, count, size)

	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	pageItems := make([]T, 0, end-offset)
	pageItems = append(pageItems, items[offset:end]...)

	return Page[T]{Items: pageItems, Number: number, NumPages: numPages, Count: count, PageSize: size}
}

// CountFunc returns the size of the collection.
type CountFunc func(ctx context.Context) (int64, error)

// FetchFunc loads limit items starting at offset, in collection order.
type FetchFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// Fetch builds a page by counting the collection and loading only the requested slice.
func Fetch[T any](ctx context.Context, size int, raw string, count CountFunc, fetch FetchFunc[T]) (Page[T], error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total, err := count(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	number, offset, numPages := Window(raw, total, size)
	items := []T{}
	if total > 0 {
		items, err = fetch(ctx, size, offset)
		if err != nil {
			return Page[T]{}, err
		}
	}

	return Page[T]{Items: items, Number: number, NumPages: numPages, Count: total, PageSize: size}, nil
}
