package discogs

import (
	"context"
)

// fetchPage retrieves one page of items along with the paging envelope.
type fetchPage[T any] func(ctx context.Context, page, perPage int) ([]T, Pagination, error)

// Iterator walks a paginated listing item by item, fetching pages lazily.
//
// An iterator can start mid-listing: when resuming a paused sync the processed count
// is preseeded from the pages already consumed, so progress reporting stays accurate
// without refetching them. Page() always reports the page the current buffer came
// from, which is exactly the cursor a caller needs to persist for resume.
type Iterator[T any] struct {
	fetch   fetchPage[T]
	page    int
	perPage int

	buffer    []T
	index     int
	processed int
	total     int
	started   bool
	done      bool
}

// NewCollectionIterator iterates the user's collection folder starting at startPage.
func NewCollectionIterator(c *Client, startPage, perPage int) *Iterator[CollectionItem] {
	return newIterator(func(ctx context.Context, page, perPage int) ([]CollectionItem, Pagination, error) {
		result, err := c.Collection(ctx, page, perPage)
		if err != nil {
			return nil, Pagination{}, err
		}
		return result.Releases, result.Pagination, nil
	}, startPage, perPage)
}

// NewInventoryIterator iterates the user's marketplace inventory starting at startPage.
func NewInventoryIterator(c *Client, startPage, perPage int) *Iterator[ListingItem] {
	return newIterator(func(ctx context.Context, page, perPage int) ([]ListingItem, Pagination, error) {
		result, err := c.Inventory(ctx, page, perPage)
		if err != nil {
			return nil, Pagination{}, err
		}
		return result.Listings, result.Pagination, nil
	}, startPage, perPage)
}

func newIterator[T any](fetch fetchPage[T], startPage, perPage int) *Iterator[T] {
	if startPage < 1 {
		startPage = 1
	}
	if perPage < 1 {
		perPage = 100
	}
	return &Iterator[T]{
		fetch:     fetch,
		page:      startPage,
		perPage:   perPage,
		processed: (startPage - 1) * perPage,
	}
}

// Next returns the next item, or ok=false when the listing is exhausted.
//
// Fetch errors pass through untouched so callers can branch on RateLimitError and
// friends; the iterator stays positioned on the failed page and a later Next call
// retries it.
func (it *Iterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if it.index >= len(it.buffer) {
		if it.done {
			return zero, false, nil
		}
		if it.started {
			it.page++
		}

		items, pagination, err := it.fetch(ctx, it.page, it.perPage)
		if err != nil {
			if it.started {
				it.page--
			}
			return zero, false, err
		}

		it.started = true
		it.total = pagination.Items
		it.buffer = items
		it.index = 0

		if len(items) == 0 || pagination.Page >= pagination.Pages {
			it.done = true
		}
		if len(items) == 0 {
			return zero, false, nil
		}
	}

	item := it.buffer[it.index]
	it.index++
	it.processed++

	return item, true, nil
}

// Page returns the page the current buffer was fetched from.
func (it *Iterator[T]) Page() int { return it.page }

// Processed returns how many items the listing has yielded, counting skipped pages
// when the iterator started mid-listing.
func (it *Iterator[T]) Processed() int { return it.processed }

// Total returns the item count reported by the remote, 0 before the first fetch.
func (it *Iterator[T]) Total() int { return it.total }
