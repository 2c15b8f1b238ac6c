package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"murmur/internal/segment"
	"murmur/internal/services"
	"murmur/internal/transcript"
)

// chunkResult is one worker outcome.
type chunkResult struct {
	chunk    segment.Chunk
	segments []transcript.Segment
	cached   bool
	err      error
}

// chunkWork runs inference for one chunk. Its context is detached from run
// cancellation.
type chunkWork func(ctx context.Context, chunk segment.Chunk) chunkResult

// dispatchOptions configures dispatch.
type dispatchOptions struct {
	concurrency int
	// failFast stops launching new chunks after the first failure.
	failFast bool
}

// dispatch runs work over chunks on a bounded pool and hands results to
// deliver strictly in chunk order. Cancellation of ctx is observed between
// launches; chunks already running finish. deliver errors stop further
// launches and are returned after in-flight work drains. A run stopped by
// ctx before every chunk was delivered returns an error matching
// services.ErrCanceled.
func dispatch(ctx context.Context, chunks []segment.Chunk, opts dispatchOptions, work chunkWork, deliver func(chunkResult) error) error {
	workers := opts.concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	jobs := make(chan segment.Chunk)
	results := make(chan chunkResult, len(chunks))
	stop := make(chan struct{})
	var stopOnce sync.Once
	halt := func() { stopOnce.Do(func() { close(stop) }) }

	detached := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for _, chunk := range chunks {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case <-stop:
				return nil
			default:
			}
			select {
			case jobs <- chunk:
			case <-ctx.Done():
				return nil
			case <-stop:
				return nil
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for chunk := range jobs {
				res := work(detached, chunk)
				if res.err != nil && opts.failFast {
					halt()
				}
				results <- res
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(results)
	}()

	pending := make(map[int]chunkResult)
	next := 0
	var firstErr error
	for res := range results {
		pending[res.chunk.Index] = res
		for firstErr == nil {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := deliver(ready); err != nil {
				firstErr = err
				halt()
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if next < len(chunks) {
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return services.Wrap(services.ErrCanceled, services.StageInference, "dispatch",
			fmt.Sprintf("run stopped after %d of %d chunks", next, len(chunks)), cause)
	}
	return nil
}
