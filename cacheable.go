package cacheable

import (
	"context"
	"reflect"
	"time"

	"github.com/unkn0wn-root/cacheable/internal/util"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

// Cacheable applies cache-aside caching for one Descriptor.
// It holds no mutable state and is safe for concurrent use.
type Cacheable[T any] struct {
	backend pr.Backend
	desc    Descriptor
	ttl     time.Duration
	log     Logger
	hooks   Hooks
}

// New validates d and binds it to backend b.
func New[T any](b pr.Backend, d Descriptor, opts Options) (*Cacheable[T], error) {
	if b == nil {
		return nil, &ConfigError{Msg: "cacheable: backend is required"}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	c := &Cacheable[T]{
		backend: b,
		desc:    d,
		log:     util.Coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:   util.Coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	c.ttl = util.Coalesce(opts.DefaultTTL, DefaultTTL)
	if d.TTL > 0 {
		c.ttl = d.TTL
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew[T any](b pr.Backend, d Descriptor, opts Options) *Cacheable[T] {
	c, err := New[T](b, d, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Descriptor returns a copy of the bound descriptor.
func (c *Cacheable[T]) Descriptor() Descriptor { return c.desc }

// TTL returns the TTL used when storing results.
func (c *Cacheable[T]) TTL() time.Duration { return c.ttl }

// Key returns the effective storage key (before any store prefix).
// Module scope without a module name resolves to the global key.
func (c *Cacheable[T]) Key() (string, error) {
	scope, _ := c.effectiveScope()
	return Key(c.desc.Key, scope, c.desc.Module)
}

// Do returns the cached value for the descriptor's key, or runs op, stores
// its non-absent result and returns it.
//
// Backend failures are logged and absorbed. An error from op is returned
// unchanged and nothing is stored.
func (c *Cacheable[T]) Do(ctx context.Context, op Func[T]) (T, error) {
	scope, fellBack := c.effectiveScope()
	if fellBack {
		c.log.Warn("cacheable: module scope specified but no moduleName provided; falling back to global scope",
			Fields{"key": c.desc.Key})
		c.hooks.ScopeFallback(c.desc.Key)
	}

	key, keyErr := Key(c.desc.Key, scope, c.desc.Module)
	if keyErr != nil {
		c.log.Error("cacheable: key computation failed; bypassing cache", Fields{"key": c.desc.Key, "err": keyErr})
		c.hooks.Bypass(c.desc.Key, keyErr)
	} else if v, ok := c.lookup(ctx, key); ok {
		return v, nil
	}

	v, err := op(ctx)
	if err != nil {
		return v, err
	}
	if keyErr == nil {
		c.populate(ctx, key, v)
	}
	return v, nil
}

func (c *Cacheable[T]) effectiveScope() (Scope, bool) {
	if c.desc.Scope == ScopeModule && c.desc.Module == "" {
		return ScopeGlobal, true
	}
	return c.desc.Scope, false
}

// lookup reports ok only for a usable hit. Read errors are absorbed.
func (c *Cacheable[T]) lookup(ctx context.Context, key string) (T, bool) {
	var v T
	found, err := c.backend.Get(ctx, key, &v)
	if err != nil {
		c.log.Error("cacheable: cache read failed; bypassing cache", Fields{"key": key, "err": err})
		c.hooks.Bypass(key, err)
		var zero T
		return zero, false
	}
	// backends report a stored null as not found; absent also catches
	// codecs without a null encoding check
	if !found || absent(v) {
		c.log.Debug("cache miss", Fields{"key": key})
		c.hooks.Miss(key)
		var zero T
		return zero, false
	}
	c.log.Debug("cache hit", Fields{"key": key})
	c.hooks.Hit(key)
	return v, true
}

func (c *Cacheable[T]) populate(ctx context.Context, key string, v T) {
	if absent(v) {
		return
	}
	if err := c.backend.Set(ctx, key, v, c.ttl); err != nil {
		c.log.Error("cacheable: cache write failed", Fields{"key": key, "err": err})
		c.hooks.PopulateFailed(key, err)
		return
	}
	c.log.Debug("cached result", Fields{"key": key, "ttl": c.ttl})
}

// absent reports whether v is a nil pointer, map, slice, interface, chan or func.
// Value kinds are never absent.
func absent[T any](v T) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
