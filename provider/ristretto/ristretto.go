// Package ristretto is an in-process provider.Backend over dgraph-io/ristretto.
// Useful for single-replica deployments and tests; it has no key scan,
// counters or TTL inspection, so it is not a full provider.Store.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/codec"
	"github.com/unkn0wn-root/cacheable/internal/util"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

type Provider struct {
	c     *rc.Cache
	codec codec.Codec
	log   cacheable.Logger
}

var _ pr.Backend = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // cost of an entry is its encoded size in bytes
	BufferItems int64
	Metrics     bool

	Codec  codec.Codec      // nil => codec.JSON
	Logger cacheable.Logger // nil => NopLogger
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, &cacheable.ConfigError{Msg: "ristretto: invalid config"}
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{
		c:     c,
		codec: util.Coalesce[codec.Codec](cfg.Codec, codec.JSON{}),
		log:   util.Coalesce[cacheable.Logger](cfg.Logger, cacheable.NopLogger{}),
	}, nil
}

func (p *Provider) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return false, nil
	}
	b := v.([]byte) // Set only stores encoded bytes
	if codec.IsNull(p.codec, b) {
		return false, nil
	}
	if err := p.codec.Unmarshal(b, dst); err != nil {
		p.c.Del(key)
		return false, cacheable.DeserializationFailed("get", key, err)
	}
	return true, nil
}

// Set is admitted asynchronously; a write dropped under pressure is not an error.
// Call Wait to make pending writes visible.
func (p *Provider) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := p.codec.Marshal(value)
	if err != nil {
		return cacheable.StoreUnavailable("set", key, err)
	}
	if ttl < 0 {
		ttl = 0 // ristretto rejects negative TTLs; 0 => no expiry
	}
	if !p.c.SetWithTTL(key, b, int64(len(b)), ttl) {
		p.log.Debug("ristretto set rejected (pressure)", cacheable.Fields{"key": key})
	}
	return nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.c.Wait() }

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

var errNoMetrics = errors.New("ristretto: metrics disabled")

// HitRatio reports the cache hit ratio; requires Config.Metrics.
func (p *Provider) HitRatio() (float64, error) {
	if p.c.Metrics == nil {
		return 0, errNoMetrics
	}
	return p.c.Metrics.Ratio(), nil
}
