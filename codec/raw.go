package codec

import "fmt"

// Raw stores []byte and string values unchanged. Useful for counters and
// pre-encoded payloads. By convention strings are UTF-8; no validation.
type Raw struct{}

var _ Codec = Raw{}

func (Raw) Marshal(v any) ([]byte, error) {
	switch vv := v.(type) {
	case []byte:
		return vv, nil
	case string:
		return []byte(vv), nil
	default:
		return nil, fmt.Errorf("codec: raw: unsupported value type %T", v)
	}
}

func (Raw) Unmarshal(b []byte, dst any) error {
	switch d := dst.(type) {
	case *[]byte:
		*d = append((*d)[:0], b...)
	case *string:
		*d = string(b)
	default:
		return fmt.Errorf("codec: raw: unsupported destination type %T", dst)
	}
	return nil
}
