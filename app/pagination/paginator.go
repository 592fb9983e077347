// Package pagination splits an ordered sequence into fixed-size pages.
package pagination

import (
	"strconv"

	"github.com/pkg/errors"
)

// Source is a sequence that can be counted and sliced.
type Source[T any] interface {
	Count() (int, error)
	Slice(offset, limit int) ([]T, error)
}

// Funcs adapts a pair of functions to Source.
type Funcs[T any] struct {
	CountFunc func() (int, error)
	SliceFunc func(offset, limit int) ([]T, error)
}

func (f Funcs[T]) Count() (int, error) { return f.CountFunc() }

func (f Funcs[T]) Slice(offset, limit int) ([]T, error) { return f.SliceFunc(offset, limit) }

// SliceSource serves pages out of an in-memory slice.
type SliceSource[T any] []T

func (s SliceSource[T]) Count() (int, error) { return len(s), nil }

func (s SliceSource[T]) Slice(offset, limit int) ([]T, error) {
	if offset >= len(s) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end], nil
}

// Page is one page of a paginated sequence.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int
	PerPage  int
}

// ParseNumber reads a page query value. Anything that is not an integer is page 1.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

// Paginate returns page raw of src. Numbers outside the valid range are
// clamped to the first or last page, and an empty source has one empty page.
func Paginate[T any](src Source[T], perPage int, raw string) (*Page[T], error) {
	if perPage < 1 {
		return nil, errors.Errorf("page size must be positive, got %d", perPage)
	}
	count, err := src.Count()
	if err != nil {
		return nil, errors.Wrap(err, "counting items")
	}

	numPages := 1
	if count > 0 {
		numPages = (count + perPage - 1) / perPage
	}

	number := ParseNumber(raw)
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	items := []T{}
	if count > 0 {
		items, err = src.Slice((number-1)*perPage, perPage)
		if err != nil {
			return nil, errors.Wrap(err, "loading page")
		}
	}

	return &Page[T]{
		Items:    items,
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
	}, nil
}

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

// NextPageNumber returns the following page, or the current one on the last page.
func (p *Page[T]) NextPageNumber() int {
	if p.HasNext() {
		return p.Number + 1
	}
	return p.Number
}

// PreviousPageNumber returns the preceding page, or 1 on the first page.
func (p *Page[T]) PreviousPageNumber() int {
	if p.HasPrevious() {
		return p.Number - 1
	}
	return 1
}

// PageRange lists every page number, for rendering the page links.
func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// StartIndex is the 1-based position of the first item on the page, 0 when empty.
func (p *Page[T]) StartIndex() int {
	if p.Count == 0 {
		return 0
	}
	return (p.Number-1)*p.PerPage + 1
}

// EndIndex is the 1-based position of the last item on the page, 0 when empty.
func (p *Page[T]) EndIndex() int {
	if p.Count == 0 {
		return 0
	}
	return p.StartIndex() + len(p.Items) - 1
}
