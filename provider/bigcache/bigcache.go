// Package bigcache is an in-process provider.Backend over allegro/bigcache.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/codec"
	"github.com/unkn0wn-root/cacheable/internal/util"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

type Provider struct {
	c     *bc.BigCache
	codec codec.Codec
}

var _ pr.Backend = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration // entry lifetime for every key; 0 => 300s
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited

	Codec codec.Codec // nil => codec.JSON
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(util.Coalesce(cfg.LifeWindow, cacheable.DefaultTTL))
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, codec: util.Coalesce[codec.Codec](cfg.Codec, codec.JSON{})}, nil
}

func (p *Provider) Get(_ context.Context, key string, dst any) (bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, cacheable.StoreUnavailable("get", key, err)
	}
	if codec.IsNull(p.codec, b) {
		return false, nil
	}
	if err := p.codec.Unmarshal(b, dst); err != nil {
		return false, cacheable.DeserializationFailed("get", key, err)
	}
	return true, nil
}

// Set ignores ttl: BigCache does not support per-entry TTL; uses global LifeWindow.
func (p *Provider) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := p.codec.Marshal(value)
	if err != nil {
		return cacheable.StoreUnavailable("set", key, err)
	}
	if err := p.c.Set(key, b); err != nil {
		return cacheable.StoreUnavailable("set", key, err)
	}
	return nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}
