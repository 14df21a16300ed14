// Package redis implements provider.Store on top of go-redis.
package redis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/codec"
	"github.com/unkn0wn-root/cacheable/internal/util"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

const defaultMaxRetries = 3

var ErrNilClient = errors.New("redis provider: nil client")

type Config struct {
	// URL is required unless Client is set, e.g. "redis://:pass@localhost:6379/0".
	URL string
	// KeyPrefix is prepended to every key, including Keys patterns, where its
	// glob metacharacters are escaped.
	KeyPrefix string
	// MaxRetries per command; 0 => 3, -1 disables retries. Ignored with Client.
	MaxRetries int

	Codec  codec.Codec      // nil => codec.JSON
	Logger cacheable.Logger // nil => NopLogger

	// Client, when set, is used instead of dialing URL. Connection lifecycle
	// logging is left to whoever built the client.
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns Client
}

// Store is the Redis adapter. Every method is one round trip.
type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	codec       codec.Codec
	log         cacheable.Logger
	closeClient bool
}

var _ pr.Store = (*Store)(nil)

// New dials cfg.URL (or adopts cfg.Client). A dialed client gets connection
// lifecycle logging.
func New(cfg Config) (*Store, error) {
	log := util.Coalesce[cacheable.Logger](cfg.Logger, cacheable.NopLogger{})
	rdb, owned := cfg.Client, cfg.CloseClient
	if rdb == nil {
		if cfg.URL == "" {
			return nil, &cacheable.ConfigError{Msg: "redis provider: url is required"}
		}
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, &cacheable.ConfigError{Msg: "redis provider: invalid url", Err: err}
		}
		opts.MaxRetries = util.Coalesce(cfg.MaxRetries, defaultMaxRetries)
		rdb, owned = goredis.NewClient(opts), true
		rdb.AddHook(newLifecycleHook(log))
	}

	return &Store{
		rdb:         rdb,
		prefix:      cfg.KeyPrefix,
		codec:       util.Coalesce[codec.Codec](cfg.Codec, codec.JSON{}),
		log:         log,
		closeClient: owned,
	}, nil
}

// NewFromClient wraps a caller-owned client; Close leaves it open.
func NewFromClient(client goredis.UniversalClient, prefix string, log cacheable.Logger) (*Store, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return New(Config{Client: client, KeyPrefix: prefix, Logger: log})
}

// Client returns the underlying go-redis client.
func (s *Store) Client() goredis.UniversalClient { return s.rdb }

func (s *Store) key(k string) string { return s.prefix + k }

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func (s *Store) fail(op, key string, err error) error {
	s.log.Error("redis "+op+" failed", cacheable.Fields{"key": key, "err": err})
	return cacheable.StoreUnavailable(op, key, err)
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := s.codec.Marshal(value)
	if err != nil {
		return s.fail("set", key, err)
	}
	if ttl <= 0 {
		ttl = 0 // plain SET; go-redis reads negative values as KEEPTTL
	}
	if err := s.rdb.Set(ctx, s.key(key), b, ttl).Err(); err != nil {
		return s.fail("set", key, err)
	}
	s.log.Debug("set key", cacheable.Fields{"key": key, "ttl": ttl})
	return nil
}

func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		s.log.Debug("key not found", cacheable.Fields{"key": key})
		return false, nil
	}
	if err != nil {
		return false, s.fail("get", key, err)
	}
	if codec.IsNull(s.codec, b) {
		s.log.Debug("key holds null", cacheable.Fields{"key": key})
		return false, nil
	}
	if err := s.codec.Unmarshal(b, dst); err != nil {
		s.log.Error("redis get: stored value is not decodable", cacheable.Fields{"key": key, "err": err})
		return false, cacheable.DeserializationFailed("get", key, err)
	}
	s.log.Debug("retrieved key", cacheable.Fields{"key": key})
	return true, nil
}

func (s *Store) Del(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Del(ctx, s.key(key)).Result()
	if err != nil {
		return 0, s.fail("del", key, err)
	}
	s.log.Debug("deleted key", cacheable.Fields{"key": key, "result": n})
	return n, nil
}

func (s *Store) HasKey(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, s.fail("exists", key, err)
	}
	s.log.Debug("key exists check", cacheable.Fields{"key": key, "result": n})
	return n == 1, nil
}

// FlushAll removes every key in the selected database, prefixed or not.
func (s *Store) FlushAll(ctx context.Context) error {
	if err := s.rdb.FlushAll(ctx).Err(); err != nil {
		return s.fail("flushall", "", err)
	}
	s.log.Info("flushed all keys from redis", nil)
	return nil
}

// Keys runs KEYS with the store prefix prepended to pattern and strips it
// from the results. KEYS blocks the server while it scans; keep it off hot paths.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	raw, err := s.rdb.Keys(ctx, globEscaper.Replace(s.prefix)+pattern).Result()
	if err != nil {
		return nil, s.fail("keys", pattern, err)
	}
	out := make([]string, len(raw))
	for i, k := range raw {
		out[i] = strings.TrimPrefix(k, s.prefix)
	}
	sort.Strings(out)
	s.log.Debug("retrieved keys", cacheable.Fields{"pattern": pattern, "count": len(out)})
	return out, nil
}

// TTL returns pr.TTLNoExpiry or pr.TTLMissing for keys without a lifetime.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.rdb.TTL(ctx, s.key(key)).Result()
	if err != nil {
		return 0, s.fail("ttl", key, err)
	}
	s.log.Debug("ttl for key", cacheable.Fields{"key": key, "ttl": d})
	return d, nil
}

func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.Expire(ctx, s.key(key), ttl).Result()
	if err != nil {
		return false, s.fail("expire", key, err)
	}
	s.log.Debug("set ttl for key", cacheable.Fields{"key": key, "ttl": ttl, "result": ok})
	return ok, nil
}

func (s *Store) Increment(ctx context.Context, key string) (int64, error) {
	return s.IncrementBy(ctx, key, 1)
}

func (s *Store) IncrementBy(ctx context.Context, key string, amount int64) (int64, error) {
	n, err := s.rdb.IncrBy(ctx, s.key(key), amount).Result()
	if err != nil {
		return 0, s.fail("incrby", key, err)
	}
	s.log.Debug("incremented key", cacheable.Fields{"key": key, "amount": amount, "result": n})
	return n, nil
}

func (s *Store) Decrement(ctx context.Context, key string) (int64, error) {
	return s.DecrementBy(ctx, key, 1)
}

func (s *Store) DecrementBy(ctx context.Context, key string, amount int64) (int64, error) {
	n, err := s.rdb.DecrBy(ctx, s.key(key), amount).Result()
	if err != nil {
		return 0, s.fail("decrby", key, err)
	}
	s.log.Debug("decremented key", cacheable.Fields{"key": key, "amount": amount, "result": n})
	return n, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
