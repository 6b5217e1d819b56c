package audit

import (
	"context"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
)

// pageFetcher returns one page of items. An empty page marks the end of the
// listing.
type pageFetcher[T any] func(ctx context.Context, q secrets.PageQuery) ([]T, error)

// collectPages requests page 1, 2, ... until a page comes back empty and
// returns every item in order. A short page is not treated as the last one;
// only an empty page stops the walk. The first error aborts and is returned
// together with the items collected so far.
func collectPages[T any](ctx context.Context, perPage int, fetch pageFetcher[T]) ([]T, error) {
	var items []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		batch, err := fetch(ctx, secrets.PageQuery{Page: page, PerPage: perPage})
		if err != nil {
			return items, err
		}
		if len(batch) == 0 {
			return items, nil
		}
		items = append(items, batch...)
	}
}
