// Package promhooks counts cacheable.Hooks events as Prometheus metrics.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cacheable"
)

const subsystem = "cacheable"

// Hooks keeps counters unlabeled by key: keys are unbounded.
type Hooks struct {
	hits           prometheus.Counter
	misses         prometheus.Counter
	bypasses       prometheus.Counter
	populateFailed prometheus.Counter
	scopeFallbacks *prometheus.CounterVec
}

var _ cacheable.Hooks = (*Hooks)(nil)

// New registers the counters with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
		})
	}
	h := &Hooks{
		hits:           counter("hits_total", "Results served from the cache."),
		misses:         counter("misses_total", "Lookups that found nothing usable."),
		bypasses:       counter("bypass_total", "Invocations that skipped the cache after a read or key error."),
		populateFailed: counter("populate_failed_total", "Results that could not be written to the cache."),
		scopeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "scope_fallback_total",
			Help: "Module-scoped descriptors that fell back to the global key.",
		}, []string{"base_key"}),
	}
	for _, c := range []prometheus.Collector{h.hits, h.misses, h.bypasses, h.populateFailed, h.scopeFallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(string)                   { h.hits.Inc() }
func (h *Hooks) Miss(string)                  { h.misses.Inc() }
func (h *Hooks) Bypass(string, error)         { h.bypasses.Inc() }
func (h *Hooks) PopulateFailed(string, error) { h.populateFailed.Inc() }

// ScopeFallback labels by base key; base keys come from static descriptors.
func (h *Hooks) ScopeFallback(baseKey string) { h.scopeFallbacks.WithLabelValues(baseKey).Inc() }
