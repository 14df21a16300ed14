// Package codec serializes cache values to and from stored bytes.
//
// JSON is the default interchange format. Changing a key's value shape (or a
// store's codec) across deployments needs a cache flush or a key rename:
// entries carry no version field.
package codec

// Codec encodes values to []byte for storage and decodes into dst,
// which must be a non-nil pointer.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte, dst any) error
}

// NullChecker is implemented by codecs with a null encoding.
type NullChecker interface {
	IsNull(b []byte) bool
}

// IsNull reports whether b is c's encoding of nil. Backends treat such
// entries as missing so they never decode into a zero value.
func IsNull(c Codec, b []byte) bool {
	nc, ok := c.(NullChecker)
	return ok && nc.IsNull(b)
}
