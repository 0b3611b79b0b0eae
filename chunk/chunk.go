// Package chunk implements the first pass of the external sort: draining
// the input sequence into memory-bounded buffers, sorting each buffer in
// place, and spilling it to its own run file. Buffers are dispatched to a
// worker pool whose admission is bounded, so the producer blocks rather
// than accumulating unbounded in-flight buffers.
package chunk

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bsm/extsort/buffer"
	"github.com/bsm/extsort/codec"
	"github.com/bsm/extsort/internal/errs"
	ilog "github.com/bsm/extsort/internal/log"
	"github.com/bsm/extsort/tempfile"
)

// Result carries one item of a fallible input sequence. A non-nil Err
// aborts the chunking pass immediately: the value is never inspected, and
// no run file for the in-progress buffer is written.
type Result[T any] struct {
	Value T
	Err   error
}

// Chunker drains a Result[T] channel into sorted run files.
type Chunker[T any] struct {
	input      <-chan Result[T]
	builder    buffer.Builder[T]
	comparator func(a, b T) int
	codec      codec.Codec[T]
	workdir    *tempfile.Workdir
	sem        *semaphore.Weighted
	fileBufLen int
	logger     *zap.Logger
}

// New creates a Chunker. numWorkers bounds how many buffers may be sorting
// and spilling to disk concurrently; it must be at least 1.
func New[T any](
	input <-chan Result[T],
	builder buffer.Builder[T],
	comparator func(a, b T) int,
	cdc codec.Codec[T],
	workdir *tempfile.Workdir,
	numWorkers int,
	fileBufLen int,
	logger *zap.Logger,
) *Chunker[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Chunker[T]{
		input:      input,
		builder:    builder,
		comparator: comparator,
		codec:      cdc,
		workdir:    workdir,
		sem:        semaphore.NewWeighted(int64(numWorkers)),
		fileBufLen: fileBufLen,
		logger:     ilog.OrDefault(logger),
	}
}

// Run drains the input channel to completion (or the first error, or
// ctx cancellation), returning the run file paths in dispatch order. The
// returned slice is safe to read: Run has already waited for every worker
// to finish writing its run before returning.
func (c *Chunker[T]) Run(ctx context.Context) ([]string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var paths []string

	dispatch := func(items []T) error {
		if err := c.sem.Acquire(gctx, 1); err != nil {
			return err
		}
		mu.Lock()
		idx := len(paths)
		paths = append(paths, "")
		mu.Unlock()

		g.Go(func() error {
			defer c.sem.Release(1)
			path, err := c.sortAndSave(items)
			if err != nil {
				return err
			}
			mu.Lock()
			paths[idx] = path
			mu.Unlock()
			return nil
		})
		return nil
	}

	buf := c.builder.New()
	var inputErr error

drain:
	for {
		select {
		case res, ok := <-c.input:
			if !ok {
				break drain
			}
			if res.Err != nil {
				inputErr = res.Err
				break drain
			}
			if !buf.Push(res.Value) {
				if err := dispatch(buf.Drain()); err != nil {
					// gctx is done: a worker failed or ctx was cancelled,
					// and the checks after g.Wait report which.
					break drain
				}
				buf = c.builder.New()
				if !buf.Push(res.Value) {
					inputErr = fmt.Errorf("chunk: item rejected by freshly emptied buffer")
					break drain
				}
			}
		case <-gctx.Done():
			break drain
		}
	}

	// On a clean drain (channel exhausted, no input error), the
	// in-progress buffer still holds items and gets one final dispatch.
	// On any error path, in-flight workers are still awaited below so
	// the caller's workdir cleanup never races a worker still writing
	// its run file, but the in-progress buffer itself is discarded: an
	// aborted chunking pass must not spill partial state to disk.
	if inputErr == nil && !buf.IsEmpty() {
		// dispatch fails only once gctx is done, which the checks after
		// g.Wait report.
		_ = dispatch(buf.Drain())
	}

	waitErr := g.Wait()

	if inputErr != nil {
		return nil, inputErr
	}
	if waitErr != nil {
		return nil, waitErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// sortAndSave sorts items in place with the configured comparator, catching
// any panic the comparator raises, then writes them as one run file.
func (c *Chunker[T]) sortAndSave(items []T) (path string, err error) {
	if sortErr := c.sortCatchingPanic(items); sortErr != nil {
		return "", sortErr
	}

	rw, err := c.workdir.NewRun(c.fileBufLen)
	if err != nil {
		return "", errs.NewIOError(err, "create run file", "")
	}
	path = rw.Path()

	for _, item := range items {
		payload, encErr := c.codec.Encode(item)
		if encErr != nil {
			rw.Close()
			return "", errs.NewSerializationError(encErr, "chunk.sortAndSave")
		}
		if wErr := rw.WriteFrame(payload); wErr != nil {
			rw.Close()
			return "", errs.NewIOError(wErr, "write run frame", path)
		}
	}

	if err := rw.Close(); err != nil {
		return "", errs.NewIOError(err, "close run file", path)
	}
	c.logger.Debug("wrote run", zap.String("path", path), zap.Int("items", len(items)))
	return path, nil
}

func (c *Chunker[T]) sortCatchingPanic(items []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewComparisonError(r, "chunk.sortAndSave")
		}
	}()
	slices.SortFunc(items, c.comparator)
	return nil
}
