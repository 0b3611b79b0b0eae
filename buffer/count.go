package buffer

// CountBuffer bounds the number of resident items. It accepts pushes while
// the item count is below budget; the push that would make the count exceed
// budget is rejected, so a dispatched run always holds exactly budget items
// (except for the final, possibly-shorter run at end of input).
type CountBuffer[T any] struct {
	budget int
	items  []T
}

// NewCountBuilder returns a Builder that produces CountBuffer instances
// capped at budget items each. A budget below 1 is treated as 1.
func NewCountBuilder[T any](budget int) Builder[T] {
	if budget < 1 {
		budget = 1
	}
	return BuilderFunc[T](func() Buffer[T] {
		return &CountBuffer[T]{budget: budget, items: make([]T, 0, budget)}
	})
}

// Push implements Buffer.
func (b *CountBuffer[T]) Push(item T) bool {
	if len(b.items) >= b.budget {
		return false
	}
	b.items = append(b.items, item)
	return true
}

// Drain implements Buffer.
func (b *CountBuffer[T]) Drain() []T {
	items := b.items
	b.items = make([]T, 0, b.budget)
	return items
}

// IsEmpty implements Buffer.
func (b *CountBuffer[T]) IsEmpty() bool {
	return len(b.items) == 0
}

// Len implements Buffer.
func (b *CountBuffer[T]) Len() int {
	return len(b.items)
}
