// Package cacheable wraps operations with cache-aside caching on top of a
// key-value store.
//
// A wrapped operation first looks its key up in the backend, returns a hit
// as-is, and otherwise runs the operation, stores a non-absent result with
// the descriptor's TTL and returns it. Store failures never reach the caller:
// the call degrades to running the operation directly. Errors from the
// operation itself are returned unchanged.
//
// Components:
//   - Key / PrefixedKey: deterministic key naming with two scopes.
//   - provider.Store: Redis adapter (provider/redis) with get/set, TTL,
//     pattern scan and counters; provider.Backend is the get/set subset.
//   - Cacheable[T]: the wrapper, plus Wrap/Wrap1/Wrap2 helpers.
//
// Keys:
//
//	<base>           - ScopeGlobal
//	<module>:<base>  - ScopeModule
//
// The store prefix (redis.Config.KeyPrefix) is applied by the adapter.
//
// Usage:
//
//	store, _ := redis.New(redis.Config{URL: "redis://localhost:6379/0", KeyPrefix: "myapp:"})
//	getUser := cacheable.MustWrap1(store, cacheable.Descriptor{
//	    Key:    "user:profile",
//	    TTL:    time.Minute,
//	    Scope:  cacheable.ScopeModule,
//	    Module: "UserModule",
//	}, cacheable.Options{}, repo.GetUser)
//	u, err := getUser(ctx, id) // stored as "myapp:UserModule:user:profile"
//
// There is no single-flight: concurrent cold calls may all run the operation.
package cacheable
