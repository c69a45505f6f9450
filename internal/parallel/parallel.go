// Package parallel provides the two runtime mechanisms every LLM call sits
// on: a bounded-concurrency indexed map and retry-with-backoff. Both are
// cancellation-aware; a fired context aborts sleeps and pending work
// immediately.
package parallel

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Map runs fn for indices 0..n-1 with at most limit concurrent workers.
// Exactly min(limit, n) workers pull indices from a shared atomic cursor
// until exhausted. Results preserve index order regardless of completion
// order. The first error cancels the whole map.
func Map[T any](ctx context.Context, n, limit int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > n {
		limit = n
	}

	results := make([]T, n)
	var cursor atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < limit; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= n {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := fn(gctx, i)
				if err != nil {
					return err
				}
				results[i] = v
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
