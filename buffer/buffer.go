// Package buffer implements the sort engine's in-memory accumulation policy:
// a mutable collection of items that reports full once a configured budget
// (item count or estimated byte size) is exhausted.
package buffer

// Buffer accumulates items until full, then hands them off unsorted.
// Sorting the drained items is the caller's responsibility, not the
// buffer's: Buffer only tracks admission against a budget.
type Buffer[T any] interface {
	// Push attempts to add item to the buffer. It returns false if the
	// item was rejected because accepting it would exceed the budget;
	// the caller must then drain and dispatch the buffer and push item
	// into a fresh one. A single item is always accepted into an
	// otherwise-empty buffer, even if it alone exceeds the budget, so
	// that a buffer can always make progress.
	Push(item T) bool

	// Drain returns the buffer's current contents in insertion order
	// and resets the buffer to empty with zero cost.
	Drain() []T

	// IsEmpty reports whether the buffer currently holds no items.
	IsEmpty() bool

	// Len reports the number of items currently held.
	Len() int
}

// Builder constructs fresh Buffer instances. The chunker asks for a new
// buffer every time the previous one is dispatched to a worker.
type Builder[T any] interface {
	New() Buffer[T]
}

// BuilderFunc adapts a plain function to the Builder interface.
type BuilderFunc[T any] func() Buffer[T]

// New calls f.
func (f BuilderFunc[T]) New() Buffer[T] {
	return f()
}
