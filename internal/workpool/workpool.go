// Package workpool runs independent units of work on a fixed number of
// workers and returns one typed result per unit.
package workpool

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Policy decides what happens to outstanding units once one fails.
type Policy int

const (
	// FailFast cancels units that have not started yet after the first failure.
	FailFast Policy = iota
	// ContinueOnError runs every unit and reports all failures together.
	ContinueOnError
)

func (p Policy) String() string {
	if p == ContinueOnError {
		return "continue-on-error"
	}
	return "fail-fast"
}

// Result is the outcome of one unit.
type Result[T, R any] struct {
	Task  T
	Value R
	Err   error
}

// DefaultWorkers resolves a requested worker count: positive values are kept,
// anything else becomes three quarters of the CPUs, at least one.
func DefaultWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Run executes fn for every task with at most workers units in flight.
// Results are returned in task order. The error is non-nil if any unit
// failed: the first failure under FailFast, all of them joined under
// ContinueOnError.
func Run[T, R any](ctx context.Context, workers int, tasks []T, policy Policy, fn func(context.Context, T) (R, error)) ([]Result[T, R], error) {
	results := make([]Result[T, R], len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	if policy == ContinueOnError {
		g = &errgroup.Group{}
		gctx = ctx
	}
	g.SetLimit(DefaultWorkers(workers))

	for i, task := range tasks {
		results[i].Task = task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(gctx, task)
			results[i].Value = v
			results[i].Err = err
			if policy == FailFast {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}

// Failed returns the results that carry an error.
func Failed[T, R any](results []Result[T, R]) []Result[T, R] {
	var out []Result[T, R]
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
