package cacheable

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration marks programming errors in key or descriptor setup.
	ErrInvalidConfiguration = errors.New("cacheable: invalid configuration")
	// ErrStoreUnavailable marks transport (or value encoding) failures talking to the store.
	ErrStoreUnavailable = errors.New("cacheable: store unavailable")
	// ErrDeserializationFailed marks stored bytes that the codec cannot decode.
	ErrDeserializationFailed = errors.New("cacheable: deserialization failed")
)

// ConfigError is returned synchronously for invalid key or descriptor setup.
// It matches ErrInvalidConfiguration with errors.Is.
type ConfigError struct {
	Msg string
	Err error // optional cause
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfiguration }

func (e *ConfigError) Unwrap() error { return e.Err }

// StoreError describes a failed store operation. Kind is one of
// ErrStoreUnavailable or ErrDeserializationFailed; Err is the underlying cause.
type StoreError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %q: %v: %v", e.Op, e.Key, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StoreUnavailable wraps err as an ErrStoreUnavailable StoreError.
func StoreUnavailable(op, key string, err error) error {
	return &StoreError{Op: op, Key: key, Kind: ErrStoreUnavailable, Err: err}
}

// DeserializationFailed wraps err as an ErrDeserializationFailed StoreError.
func DeserializationFailed(op, key string, err error) error {
	return &StoreError{Op: op, Key: key, Kind: ErrDeserializationFailed, Err: err}
}
