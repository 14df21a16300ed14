// Package sloghooks logs cacheable.Hooks events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheable"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery  uint64
	MissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	missCtr atomic.Uint64
}

var _ cacheable.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("cacheable.hit", "key", h.redact(key))
}

func (h *Hooks) Miss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("cacheable.miss", "key", h.redact(key))
}

func (h *Hooks) Bypass(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheable.bypass",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) PopulateFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheable.populate_failed",
		"key", h.redact(key),
		"err", err)
}

// ScopeFallback logs the base key unredacted: it is static configuration.
func (h *Hooks) ScopeFallback(baseKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cacheable.scope_fallback",
		"base_key", baseKey,
		"msg", "module scope without module name; using global key")
}
