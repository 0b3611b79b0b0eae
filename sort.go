// Package extsort implements an external sort for sequences too large to
// hold entirely in memory: items are drained into memory-bounded buffers,
// each buffer sorted and spilled to its own run file, then every run file
// is merged back into one strictly ascending stream via a k-way merge.
package extsort

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/bsm/extsort/chunk"
	ilog "github.com/bsm/extsort/internal/log"
	"github.com/bsm/extsort/merge"
	"github.com/bsm/extsort/tempfile"
)

// Result is re-exported from chunk so callers never import that package
// directly: it is the element type of Sort's input channel, carrying
// either a value or the error that ends the input sequence.
type Result[T any] = chunk.Result[T]

// FromChan adapts a plain, infallible channel of T into a Result[T]
// channel, for callers whose input source cannot fail.
func FromChan[T any](in <-chan T) <-chan Result[T] {
	out := make(chan Result[T])
	go func() {
		defer close(out)
		for v := range in {
			out <- Result[T]{Value: v}
		}
	}()
	return out
}

// Sort performs an external sort of the items read from input, applying
// opts to the default Config. It returns a channel of results in strictly
// ascending order and a channel that carries at most one error.
//
// Sort validates its configuration synchronously and returns immediately
// with a closed, empty output and the ConfigError on the error channel if
// validation fails — no goroutine or temp file is created in that case.
// Otherwise both channels are closed once the sort completes, whether
// successfully, on error, or because ctx was cancelled; any run files and
// the working directory are removed before the output channel closes.
//
// A caller that stops reading out before it is closed must cancel ctx:
// the internal goroutine blocks indefinitely on the send otherwise, and
// the working directory is never cleaned up.
func Sort[T any](ctx context.Context, input <-chan Result[T], opts ...Option[T]) (<-chan T, <-chan error) {
	out := make(chan T)
	errc := make(chan error, 1)

	cfg, err := newConfig(opts)
	if err != nil {
		close(out)
		errc <- err
		close(errc)
		return out, errc
	}

	logger := ilog.OrDefault(cfg.Logger)

	workdir, err := tempfile.NewWorkdir(cfg.TempDir, cfg.FilePrefix, logger)
	if err != nil {
		close(out)
		errc <- NewIOError(err, "create working directory", cfg.TempDir)
		close(errc)
		return out, errc
	}

	go run(ctx, cfg, input, workdir, logger, out, errc)
	return out, errc
}

func run[T any](
	ctx context.Context,
	cfg *Config[T],
	input <-chan Result[T],
	workdir *tempfile.Workdir,
	logger *zap.Logger,
	out chan T,
	errc chan error,
) {
	defer close(out)
	defer close(errc)
	defer workdir.Close()

	c := chunk.New(input, cfg.Buffer, cfg.Comparator, cfg.Codec, workdir, cfg.NumWorkers, cfg.FileBufferSize, logger)
	paths, err := c.Run(ctx)
	if err != nil {
		errc <- err
		return
	}

	if len(paths) == 0 {
		return
	}

	m, err := merge.New(paths, cfg.Comparator, cfg.Codec, cfg.FileBufferSize, logger)
	if err != nil {
		errc <- err
		return
	}
	defer m.Close()

	for {
		item, nextErr := m.Next()
		if nextErr != nil {
			if nextErr != io.EOF {
				errc <- nextErr
			}
			return
		}
		select {
		case out <- item:
		case <-ctx.Done():
			errc <- ctx.Err()
			return
		}
	}
}
