package cacheable

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The wrapper calls them on every invocation.
type Hooks interface {
	// The value was served from the backend; the operation did not run.
	Hit(key string)

	// Nothing usable was stored under key; the operation runs.
	Miss(key string)

	// Key computation or the backend read failed; the operation runs
	// without consulting the cache.
	Bypass(key string, err error)

	// The operation succeeded but storing its result failed.
	PopulateFailed(key string, err error)

	// Module scope was configured without a module name and the global
	// key was used instead.
	ScopeFallback(baseKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                   {}
func (NopHooks) Miss(string)                  {}
func (NopHooks) Bypass(string, error)         {}
func (NopHooks) PopulateFailed(string, error) {}
func (NopHooks) ScopeFallback(string)         {}
