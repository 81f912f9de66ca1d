// Package workpool runs a fixed number of workers over a fixed task list.
package workpool

import (
	"context"
	"sync"
)

// Run processes items with at most workers concurrent calls to fn and returns
// the results in input order. Each worker writes only its task's slot. Run
// returns after every item has been handed to fn and fn has returned, so fn
// must observe ctx itself to stop early.
func Run[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, idx int, item T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	tasks := make(chan int, len(items))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				results[idx] = fn(ctx, idx, items[idx])
			}
		}()
	}

	for idx := range items {
		tasks <- idx
	}
	close(tasks)

	wg.Wait()
	return results
}
