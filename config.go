package extsort

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/bsm/extsort/buffer"
	"github.com/bsm/extsort/codec"
)

// Config holds the settings a Sort run uses, filled in with defaults for
// any field the caller does not set explicitly. Most callers should use
// the Option functions instead of constructing Config directly.
type Config[T any] struct {
	// NumWorkers bounds how many buffers may be sorting and spilling to
	// disk concurrently during the chunking pass.
	NumWorkers int

	// FileBufferSize is the bufio buffer size, in bytes, used for each
	// run file's reader and writer.
	FileBufferSize int

	// TempDir is the root directory under which a uniquely named working
	// directory is created for this sort's run files. Empty means the OS
	// default temp directory.
	TempDir string

	// FilePrefix is included in every run file name, to help identify
	// files belonging to a particular process if cleanup is interrupted.
	FilePrefix string

	// Buffer builds the in-memory accumulation buffers the chunking pass
	// fills before spilling to disk.
	Buffer buffer.Builder[T]

	// Comparator orders two items: negative if a sorts before b, zero if
	// equal, positive if a sorts after b.
	Comparator func(a, b T) int

	// Codec serializes and deserializes items for storage in run files.
	Codec codec.Codec[T]

	// Logger receives structured diagnostic logging. Nil discards it.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with every field set to its default
// except Comparator and Codec, which have no safe default and must be
// supplied by the caller (via WithComparator/WithCodec, or Config fields
// set directly).
func DefaultConfig[T any]() *Config[T] {
	return &Config[T]{
		NumWorkers:     4,
		FileBufferSize: 4 << 20, // 4MiB
		FilePrefix:     fmt.Sprintf("extsort_%d_", os.Getpid()),
		Buffer:         buffer.NewCountBuilder[T](int(2e7 / 4)),
	}
}

// Option configures a Config. Options are applied in order, so a later
// option overrides an earlier one touching the same field.
type Option[T any] func(*Config[T])

// WithThreads sets the number of concurrent sort/spill workers.
func WithThreads[T any](n int) Option[T] {
	return func(c *Config[T]) { c.NumWorkers = n }
}

// WithTempDir sets the root directory for run files.
func WithTempDir[T any](dir string) Option[T] {
	return func(c *Config[T]) { c.TempDir = dir }
}

// WithBuffer sets the buffer builder used for in-memory accumulation,
// typically buffer.NewCountBuilder or buffer.NewMemoryBuilder.
func WithBuffer[T any](b buffer.Builder[T]) Option[T] {
	return func(c *Config[T]) { c.Buffer = b }
}

// WithComparator sets the item ordering.
func WithComparator[T any](cmp func(a, b T) int) Option[T] {
	return func(c *Config[T]) { c.Comparator = cmp }
}

// WithCodec sets the item serialization strategy.
func WithCodec[T any](cdc codec.Codec[T]) Option[T] {
	return func(c *Config[T]) { c.Codec = cdc }
}

// WithLogger sets the structured logger.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(c *Config[T]) { c.Logger = l }
}

// WithFileBufferSize sets the per-run-file bufio buffer size in bytes.
func WithFileBufferSize[T any](n int) Option[T] {
	return func(c *Config[T]) { c.FileBufferSize = n }
}

// newConfig builds a Config from defaults and the supplied options, then
// validates it.
func newConfig[T any](opts []Option[T]) (*Config[T], error) {
	c := DefaultConfig[T]()
	for _, opt := range opts {
		opt(c)
	}
	if c.NumWorkers < 1 {
		return nil, NewConfigError("NumWorkers", c.NumWorkers, "must be at least 1")
	}
	if c.Buffer == nil {
		return nil, NewConfigError("Buffer", nil, "must not be nil")
	}
	if c.Comparator == nil {
		return nil, NewConfigError("Comparator", nil, "must not be nil")
	}
	if c.Codec == nil {
		return nil, NewConfigError("Codec", nil, "must not be nil")
	}
	if c.TempDir != "" {
		if err := os.MkdirAll(c.TempDir, 0o755); err != nil {
			return nil, NewConfigError("TempDir", c.TempDir, fmt.Sprintf("cannot be created: %v", err))
		}
	}
	return c, nil
}
