package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut runs fn for every item concurrently, at most limit at a time, and
// waits for all of them. A failure never cancels its siblings; errs[i] is
// the error returned for items[i].
func FanOut[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		g.Go(func() error {
			// Each slot is written by exactly one goroutine.
			errs[i] = fn(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
