package codec

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// Protobuf encodes proto.Message values in binary wire format.
// Unmarshal accepts a message (e.g. *mypb.User) or a pointer to a message
// pointer (e.g. **mypb.User, which is what the wrapper passes for T=*mypb.User).
type Protobuf struct{}

var _ Codec = Protobuf{}

func (Protobuf) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("codec: protobuf: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (Protobuf) Unmarshal(b []byte, dst any) error {
	if m, ok := dst.(proto.Message); ok {
		return proto.Unmarshal(b, m)
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Pointer {
		return fmt.Errorf("codec: protobuf: cannot decode into %T", dst)
	}
	inner := rv.Elem()
	if inner.IsNil() {
		inner.Set(reflect.New(inner.Type().Elem()))
	}
	m, ok := inner.Interface().(proto.Message)
	if !ok {
		return fmt.Errorf("codec: protobuf: %T is not a proto.Message", inner.Interface())
	}
	return proto.Unmarshal(b, m)
}
