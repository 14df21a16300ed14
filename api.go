package cacheable

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// Func is a zero-argument operation whose result can be cached.
type Func[T any] func(ctx context.Context) (T, error)

// Descriptor is the static per-operation cache configuration.
// It is copied by New; later changes to the caller's value have no effect.
type Descriptor struct {
	// Required. Cache namespace of the operation, e.g. "user:profile".
	Key string

	TTL    time.Duration // 0 => Options.DefaultTTL (300s)
	Scope  Scope         // default ScopeGlobal
	Module string        // required for ScopeModule; missing => global fallback with a warning

	// Serialize is advisory; values are always encoded by the backend's codec.
	// nil means true.
	Serialize *bool
}

// Serializes reports the advisory serialize flag (default true).
func (d Descriptor) Serializes() bool { return d.Serialize == nil || *d.Serialize }

// Validate reports ErrInvalidConfiguration for an empty Key.
func (d Descriptor) Validate() error {
	if d.Key == "" {
		return &ConfigError{Msg: "cacheable: descriptor key is required"}
	}
	return nil
}

// Options tune the wrapper. All fields are optional.
type Options struct {
	Logger     Logger        // if nil, NopLogger is used
	Hooks      Hooks         // if nil, NopHooks is used
	DefaultTTL time.Duration // 0 => 300s
}

// Wrap returns op wrapped with cache-aside caching.
func Wrap[T any](b pr.Backend, d Descriptor, opts Options, op Func[T]) (Func[T], error) {
	c, err := New[T](b, d, opts)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (T, error) {
		return c.Do(ctx, op)
	}, nil
}

// Wrap1 is Wrap for one-argument operations. The argument does not take part
// in the key: every call shares the descriptor's key.
func Wrap1[A, T any](b pr.Backend, d Descriptor, opts Options, op func(context.Context, A) (T, error)) (func(context.Context, A) (T, error), error) {
	c, err := New[T](b, d, opts)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, a A) (T, error) {
		return c.Do(ctx, func(ctx context.Context) (T, error) { return op(ctx, a) })
	}, nil
}

// Wrap2 is Wrap for two-argument operations. Arguments do not take part in the key.
func Wrap2[A, B, T any](b pr.Backend, d Descriptor, opts Options, op func(context.Context, A, B) (T, error)) (func(context.Context, A, B) (T, error), error) {
	c, err := New[T](b, d, opts)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, a A, bb B) (T, error) {
		return c.Do(ctx, func(ctx context.Context) (T, error) { return op(ctx, a, bb) })
	}, nil
}

// MustWrap is like Wrap but panics on error.
// Handy for package-level variables; descriptor errors are programming errors.
func MustWrap[T any](b pr.Backend, d Descriptor, opts Options, op Func[T]) Func[T] {
	f, err := Wrap(b, d, opts, op)
	if err != nil {
		panic(err)
	}
	return f
}

// MustWrap1 is like Wrap1 but panics on error.
func MustWrap1[A, T any](b pr.Backend, d Descriptor, opts Options, op func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	f, err := Wrap1(b, d, opts, op)
	if err != nil {
		panic(err)
	}
	return f
}
