package backend

import (
	"context"
	"fmt"
)

// PageFunc fetches one 1-based page. An empty slice marks the end.
type PageFunc[T any] func(ctx context.Context, page int) ([]T, error)

// Pager walks a paginated listing lazily. It issues at most maxPages
// requests; a listing that is still returning data at that point fails with
// ErrPaginationLimit instead of looping forever.
type Pager[T any] struct {
	fetch    PageFunc[T]
	maxPages int
	page     int
	items    []T
	err      error
	done     bool
}

// NewPager creates a pager. maxPages <= 0 disables the limit.
func NewPager[T any](fetch PageFunc[T], maxPages int) *Pager[T] {
	return &Pager[T]{fetch: fetch, maxPages: maxPages}
}

// Next fetches the following page and reports whether it carried data
func (p *Pager[T]) Next(ctx context.Context) bool {
	if p.done {
		return false
	}
	if p.maxPages > 0 && p.page >= p.maxPages {
		p.fail(fmt.Errorf("%w: still receiving data after %d pages", ErrPaginationLimit, p.page))
		return false
	}

	p.page++
	items, err := p.fetch(ctx, p.page)
	if err != nil {
		p.fail(err)
		return false
	}
	if len(items) == 0 {
		p.done = true
		p.items = nil
		return false
	}

	p.items = items
	return true
}

func (p *Pager[T]) fail(err error) {
	p.err = err
	p.done = true
	p.items = nil
}

// Items returns the page fetched by the last successful Next
func (p *Pager[T]) Items() []T {
	return p.items
}

// Page returns the number of requests issued so far
func (p *Pager[T]) Page() int {
	return p.page
}

// Err returns the error that stopped the pager, if any
func (p *Pager[T]) Err() error {
	return p.err
}

// Collect drains a listing. It is all-or-nothing: on any error the pages
// gathered so far are discarded.
func Collect[T any](ctx context.Context, fetch PageFunc[T], maxPages int) ([]T, error) {
	var all []T
	pager := NewPager(fetch, maxPages)
	for pager.Next(ctx) {
		all = append(all, pager.Items()...)
	}
	if err := pager.Err(); err != nil {
		return nil, err
	}
	return all, nil
}
