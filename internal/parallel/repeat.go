package parallel

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrPartial marks a Repeat that stopped early because its context ended.
// The results returned alongside it are complete for the indexes they cover.
var ErrPartial = errors.New("repeat stopped before all iterations completed")

// Workers resolves a requested worker count: 0 means one per CPU
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return requested
}

// Repeat runs fn for every index in [0, n) on up to workers goroutines and
// returns the results in index order.
//
// If fn fails, the remaining iterations are cancelled and Repeat returns nil
// and that error: callers never see a subset chosen by which iterations
// failed. If ctx ends first, Repeat returns the results of the iterations that
// finished together with an error wrapping both ErrPartial and ctx.Err(); a
// context that ends after the last iteration finished is not an error.
func Repeat[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}

	slots := make([]T, n)
	done := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, i)
			if err != nil {
				return err
			}
			// Each index is written by exactly one goroutine
			slots[i] = v
			done[i] = true
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil && (err == nil || errors.Is(err, ctxErr)) {
		finished := compact(slots, done)
		if len(finished) == n {
			return finished, nil
		}
		return finished, errors.Join(ErrPartial, ctxErr)
	}
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func compact[T any](slots []T, done []bool) []T {
	out := make([]T, 0, len(slots))
	for i, ok := range done {
		if ok {
			out = append(out, slots[i])
		}
	}
	return out
}
