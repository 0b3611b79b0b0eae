package codec

import "github.com/vmihailenco/msgpack/v5"

// MsgpackCodec is the engine's default Codec, serializing items with
// MessagePack. It is the Go-native equivalent of the rmp (Rust MessagePack)
// codec the original external sorter shipped as its default.
type MsgpackCodec[T any] struct{}

// NewMsgpackCodec returns a ready to use MessagePack codec for T.
func NewMsgpackCodec[T any]() *MsgpackCodec[T] {
	return &MsgpackCodec[T]{}
}

// Encode implements Codec.
func (MsgpackCodec[T]) Encode(item T) ([]byte, error) {
	return msgpack.Marshal(item)
}

// Decode implements Codec.
func (MsgpackCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := msgpack.Unmarshal(data, &v)
	return v, err
}
