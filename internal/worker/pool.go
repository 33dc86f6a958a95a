package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Task represents a unit of work to be processed by the pool.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Done is false when the task never ran because the context was cancelled.
	Done bool
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// ProgressFunc is called after each finished task with the number of
// finished tasks so far. It may be called from several goroutines.
type ProgressFunc func(done, total int)

// Pool is a generic worker pool with configurable concurrency.
type Pool[T any, R any] struct {
	workers  int
	process  ProcessFunc[T, R]
	progress ProgressFunc
	name     string
}

// Option customises a Pool.
type Option func(*options)

type options struct {
	progress ProgressFunc
	name     string
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithName labels the pool in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R], opts ...Option) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Pool[T, R]{
		workers:  workers,
		process:  fn,
		progress: o.progress,
		name:     o.name,
	}
}

// Execute runs all inputs through the worker pool and returns results in
// input order. Inputs not yet started when ctx is cancelled are left with
// Done set to false.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}
	inputCh := make(chan int, len(inputs))

	var wg sync.WaitGroup
	var done atomic.Int64

	// Start workers.
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-inputCh:
					if !ok {
						return
					}
					result, err := p.process(ctx, inputs[idx])
					results[idx].Result = result
					results[idx].Err = err
					results[idx].Done = true
					if err != nil {
						log.Debug().Err(err).Str("pool", p.name).Int("worker", workerID).Int("index", idx).Msg("Task failed")
					}
					if p.progress != nil {
						p.progress(int(done.Add(1)), len(inputs))
					}
				}
			}
		}(w)
	}

	// Send inputs.
send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)

	// Wait for all workers to finish.
	wg.Wait()
	return results
}

// Batch splits inputs into batches of at most batchSize items.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
