package extsort

import (
	"cmp"
	"context"

	"github.com/bsm/extsort/codec"
)

// Ordered sorts a sequence of any cmp.Ordered type in its natural
// ascending order, using the gob codec for serialization. It is a
// convenience wrapper over Sort for the common case where the item type
// has a built-in total order and no custom comparator is needed.
func Ordered[T cmp.Ordered](ctx context.Context, input <-chan Result[T], opts ...Option[T]) (<-chan T, <-chan error) {
	opts = append([]Option[T]{
		WithComparator[T](cmp.Compare[T]),
		WithCodec[T](codec.NewGobCodec[T]()),
	}, opts...)
	return Sort(ctx, input, opts...)
}

// Strings sorts a sequence of strings in ascending lexical order. It is a
// thin specialization of Ordered[string].
func Strings(ctx context.Context, input <-chan Result[string], opts ...Option[string]) (<-chan string, <-chan error) {
	return Ordered(ctx, input, opts...)
}
