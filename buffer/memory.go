package buffer

// Sizer estimates the deep, owned-heap-memory byte size of an item. It
// should include backing arrays of slices/strings/maps, not just the
// shallow struct size, so that threads*buffers*budget bounds peak RSS.
// Estimates are advisory: exact accuracy is type-dependent, see ReflectSizer.
type Sizer[T any] func(item T) int64

// MemoryBuffer bounds the summed size estimate of its resident items rather
// than their count. A push is accepted if current+estimate <= budget; the
// single exception is a push into an otherwise-empty buffer, which is
// always accepted so that one oversize item doesn't stall the pipeline.
type MemoryBuffer[T any] struct {
	budget int64
	cost   int64
	sizer  Sizer[T]
	items  []T
}

// NewMemoryBuilder returns a Builder that produces MemoryBuffer instances
// capped at budget estimated bytes, using sizer to estimate each item.
func NewMemoryBuilder[T any](budget int64, sizer Sizer[T]) Builder[T] {
	if budget < 1 {
		budget = 1
	}
	if sizer == nil {
		sizer = ReflectSizer[T]
	}
	return BuilderFunc[T](func() Buffer[T] {
		return &MemoryBuffer[T]{budget: budget, sizer: sizer}
	})
}

// Push implements Buffer.
func (b *MemoryBuffer[T]) Push(item T) bool {
	estimate := b.sizer(item)
	if len(b.items) > 0 && b.cost+estimate > b.budget {
		return false
	}
	b.items = append(b.items, item)
	b.cost += estimate
	return true
}

// Drain implements Buffer.
func (b *MemoryBuffer[T]) Drain() []T {
	items := b.items
	b.items = nil
	b.cost = 0
	return items
}

// IsEmpty implements Buffer.
func (b *MemoryBuffer[T]) IsEmpty() bool {
	return len(b.items) == 0
}

// Len implements Buffer.
func (b *MemoryBuffer[T]) Len() int {
	return len(b.items)
}

// Cost returns the current summed size estimate of resident items.
func (b *MemoryBuffer[T]) Cost() int64 {
	return b.cost
}
