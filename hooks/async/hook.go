// Package asynchook moves cacheable.Hooks calls off the request path.
// Events are dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery: 100, // sample logs: ~every 100th hit
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	getUsers := cacheable.MustWrap(store, cacheable.Descriptor{Key: "users"},
//	    cacheable.Options{Hooks: hooks}, loadUsers)
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheable"
)

type Hooks struct {
	inner   cacheable.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ cacheable.Hooks = (*Hooks)(nil)

func New(inner cacheable.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = cacheable.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports events discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on closed channel: Close raced with us
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string)                       { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)                      { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) Bypass(k string, err error)         { h.try(func() { h.inner.Bypass(k, err) }) }
func (h *Hooks) PopulateFailed(k string, err error) { h.try(func() { h.inner.PopulateFailed(k, err) }) }
func (h *Hooks) ScopeFallback(base string)          { h.try(func() { h.inner.ScopeFallback(base) }) }
