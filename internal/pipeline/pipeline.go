// Package pipeline provides a generic bounded-concurrency fan-out used by the
// crawl orchestrator. One input's failure never cancels its siblings.
package pipeline

import (
	"context"
	"sync"
)

// Result wraps the output of one processed input with its error.
type Result[Out any] struct {
	Value Out
	Err   error
	Index int // original index in the input slice
}

// Stage defines a concurrent processing stage.
type Stage[In, Out any] struct {
	Name        string
	Concurrency int
	Process     func(ctx context.Context, input In) (Out, error)
}

// RunStage executes Process over all inputs with bounded concurrency and
// returns results in input order. Errors are collected, not propagated.
func RunStage[In, Out any](ctx context.Context, stage Stage[In, Out], inputs []In) []Result[Out] {
	if len(inputs) == 0 {
		return nil
	}

	concurrency := stage.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(inputs) {
		concurrency = len(inputs)
	}

	results := make([]Result[Out], len(inputs))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in In) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Result[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			if ctx.Err() != nil {
				results[idx] = Result[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			out, err := safeProcess(ctx, stage.Process, in)
			results[idx] = Result[Out]{Value: out, Err: err, Index: idx}
		}(i, input)
	}

	wg.Wait()
	return results
}

// safeProcess converts a panicking worker into an ordinary error result.
func safeProcess[In, Out any](ctx context.Context, fn func(context.Context, In) (Out, error), in In) (out Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx, in)
}

// PanicError reports a recovered panic from a stage worker.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if s, ok := e.Value.(string); ok {
		return "worker panic: " + s
	}
	if err, ok := e.Value.(error); ok {
		return "worker panic: " + err.Error()
	}
	return "worker panic"
}
