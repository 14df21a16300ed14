package codec

import (
	"bytes"
	"encoding/json"
)

// JSON stores values as UTF-8 JSON text. The zero value is ready to use.
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Marshal(v any) ([]byte, error)     { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, dst any) error { return json.Unmarshal(b, dst) }

var jsonNull = []byte("null")

func (JSON) IsNull(b []byte) bool { return bytes.Equal(bytes.TrimSpace(b), jsonNull) }
