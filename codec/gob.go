package codec

import (
	"bytes"
	"encoding/gob"
	"sync"
)

// GobCodec serializes items with encoding/gob, reusing pooled buffers the
// way the ordered convenience sorter does to cut allocation pressure on
// the hot encode/decode path.
type GobCodec[T any] struct {
	pool sync.Pool
}

// NewGobCodec returns a ready to use gob codec for T.
func NewGobCodec[T any]() *GobCodec[T] {
	return &GobCodec[T]{
		pool: sync.Pool{
			New: func() any { return &bytes.Buffer{} },
		},
	}
}

// Encode implements Codec.
func (c *GobCodec[T]) Encode(item T) ([]byte, error) {
	buf := c.pool.Get().(*bytes.Buffer)
	buf.Reset()
	defer c.pool.Put(buf)

	if err := gob.NewEncoder(buf).Encode(item); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Decode implements Codec.
func (c *GobCodec[T]) Decode(data []byte) (T, error) {
	var v T
	buf := c.pool.Get().(*bytes.Buffer)
	buf.Reset()
	buf.Write(data)
	defer c.pool.Put(buf)

	err := gob.NewDecoder(buf).Decode(&v)
	return v, err
}
