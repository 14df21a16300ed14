package codec

import (
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Msgpack is a Codec that serializes values using vmihailenco/msgpack/v5.
// The zero value is ready to use.
//
// Msgpack is compact and fast; be mindful of struct tag differences vs JSON.
// Use `msgpack:"fieldName"` tags if you need explicit control.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}
func (Msgpack) Unmarshal(b []byte, dst any) error {
	return msgpack.Unmarshal(b, dst)
}

// IsNull matches the msgpack nil byte (0xc0).
func (Msgpack) IsNull(b []byte) bool { return len(b) == 1 && b[0] == msgpcode.Nil }
