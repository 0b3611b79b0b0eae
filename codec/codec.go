// Package codec defines the serialization strategy plugged into the
// external sort engine. A Codec turns one item into payload bytes and
// back; framing (the length prefix that delimits one payload from the
// next inside a run file) is owned by the tempfile package, not here.
package codec

// Codec serializes and deserializes a single item of type T. Implementations
// must be safe for concurrent use: the engine shares one Codec value across
// every sort and merge worker.
type Codec[T any] interface {
	// Encode returns the payload bytes for item. The returned slice must
	// not alias memory the caller later mutates.
	Encode(item T) ([]byte, error)

	// Decode reconstructs an item from payload bytes previously produced
	// by Encode. It must be the inverse of Encode for every value written
	// by this engine.
	Decode(data []byte) (T, error)
}
