package redis

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/unkn0wn-root/cacheable"
	"github.com/unkn0wn-root/cacheable/codec"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

type logEntry struct {
	level string
	msg   string
	f     cacheable.Fields
}

type recLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recLogger) add(level, msg string, f cacheable.Fields) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, f: f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, f cacheable.Fields) { l.add("debug", msg, f) }
func (l *recLogger) Info(msg string, f cacheable.Fields)  { l.add("info", msg, f) }
func (l *recLogger) Warn(msg string, f cacheable.Fields)  { l.add("warn", msg, f) }
func (l *recLogger) Error(msg string, f cacheable.Fields) { l.add("error", msg, f) }

func (l *recLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func (l *recLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T, prefix string, mut func(*Config)) (*Store, *miniredis.Miniredis, *recLogger) {
	t.Helper()
	mr := miniredis.RunT(t)
	log := &recLogger{}
	cfg := Config{URL: "redis://" + mr.Addr(), KeyPrefix: prefix, Logger: log}
	if mut != nil {
		mut(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, mr, log
}

func TestSetGetRoundTripJSON(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStore(t, "", nil)

	in := user{ID: "1", Name: "Ada"}
	if err := s.Set(ctx, "user:1", in, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	raw, err := mr.Get("user:1")
	if err != nil {
		t.Fatalf("miniredis Get: %v", err)
	}
	if raw != `{"id":"1","name":"Ada"}` {
		t.Fatalf("stored text = %q", raw)
	}

	var out user
	ok, err := s.Get(ctx, "user:1", &out)
	if err != nil || !ok || out != in {
		t.Fatalf("Get: ok=%v err=%v out=%+v", ok, err, out)
	}
}

func TestGetMissIsNotAnError(t *testing.T) {
	s, _, _ := newTestStore(t, "", nil)
	var out user
	ok, err := s.Get(context.Background(), "nope", &out)
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestSetWithTTLExpires(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStore(t, "", nil)

	if err := s.Set(ctx, "k", "v", 60*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mr.TTL("k"); got != 60*time.Second {
		t.Fatalf("ttl = %v want 60s", got)
	}

	mr.FastForward(61 * time.Second)
	var out string
	if ok, err := s.Get(ctx, "k", &out); err != nil || ok {
		t.Fatalf("expected expiry, ok=%v err=%v", ok, err)
	}
}

func TestSetWithoutTTLPersists(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, "", nil)

	for _, ttl := range []time.Duration{0, -5 * time.Second} {
		if err := s.Set(ctx, "persist", 1, ttl); err != nil {
			t.Fatalf("Set(ttl=%v): %v", ttl, err)
		}
		got, err := s.TTL(ctx, "persist")
		if err != nil {
			t.Fatalf("TTL: %v", err)
		}
		if got != pr.TTLNoExpiry {
			t.Fatalf("ttl=%v: TTL = %v want TTLNoExpiry", ttl, got)
		}
	}
}

func TestGetCorruptValue(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStore(t, "", nil)

	if err := mr.Set("bad", "not-json"); err != nil {
		t.Fatal(err)
	}
	var out user
	ok, err := s.Get(ctx, "bad", &out)
	if ok || err == nil {
		t.Fatalf("expected decode failure, ok=%v err=%v", ok, err)
	}
	if !errors.Is(err, cacheable.ErrDeserializationFailed) {
		t.Fatalf("expected ErrDeserializationFailed, got %v", err)
	}
	if errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("decode failure must not read as store unavailable")
	}
}

func TestServerErrorIsStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr, log := newTestStore(t, "", nil)

	// establish the connection before failing commands
	if err := s.Set(ctx, "warm", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.SetError("ERR injected failure")

	var out int
	if _, err := s.Get(ctx, "warm", &out); !errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("Get: expected ErrStoreUnavailable, got %v", err)
	}
	if err := s.Set(ctx, "warm", 2, 0); !errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("Set: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := s.IncrementBy(ctx, "n", 2); !errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("IncrementBy: expected ErrStoreUnavailable, got %v", err)
	}
	if !log.has("error", "redis get failed") {
		t.Fatalf("expected get failure to be logged")
	}

	var se *cacheable.StoreError
	_, err := s.Del(ctx, "warm")
	if !errors.As(err, &se) || se.Op != "del" || se.Key != "warm" {
		t.Fatalf("expected StoreError for del, got %T %v", err, err)
	}
}

func TestUnencodableValueIsStoreUnavailable(t *testing.T) {
	s, _, _ := newTestStore(t, "", nil)
	err := s.Set(context.Background(), "ch", make(chan int), 0)
	if !errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable for unencodable value, got %v", err)
	}
}

func TestDelAndHasKey(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, "", nil)

	if err := s.Set(ctx, "a", "x", 0); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.HasKey(ctx, "a"); err != nil || !ok {
		t.Fatalf("HasKey present: ok=%v err=%v", ok, err)
	}
	if n, err := s.Del(ctx, "a"); err != nil || n != 1 {
		t.Fatalf("Del present: n=%d err=%v", n, err)
	}
	if n, err := s.Del(ctx, "a"); err != nil || n != 0 {
		t.Fatalf("Del absent: n=%d err=%v", n, err)
	}
	if ok, err := s.HasKey(ctx, "a"); err != nil || ok {
		t.Fatalf("HasKey absent: ok=%v err=%v", ok, err)
	}
}

func TestKeysPrefixedAndSorted(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStore(t, "myapp:", nil)

	for _, k := range []string{"user:2", "user:1", "order:1"} {
		if err := s.Set(ctx, k, k, 0); err != nil {
			t.Fatal(err)
		}
	}
	// foreign key outside the prefix
	if err := mr.Set("other:user:9", "x"); err != nil {
		t.Fatal(err)
	}

	if !mr.Exists("myapp:user:1") {
		t.Fatalf("expected prefixed storage key")
	}

	got, err := s.Keys(ctx, "user:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"user:1", "user:2"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Keys = %v want %v", got, want)
	}

	var v string
	if ok, err := s.Get(ctx, got[0], &v); err != nil || !ok || v != "user:1" {
		t.Fatalf("Keys result must round-trip into Get: ok=%v err=%v v=%q", ok, err, v)
	}
}

func TestFlushAll(t *testing.T) {
	ctx := context.Background()
	s, mr, log := newTestStore(t, "p:", nil)

	_ = s.Set(ctx, "a", 1, 0)
	_ = mr.Set("unprefixed", "1")
	if err := s.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected empty db, got %v", mr.Keys())
	}
	if !log.has("info", "flushed all keys from redis") {
		t.Fatalf("expected flush to be logged at info")
	}
}

func TestTTLAndExpire(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, "", nil)

	if d, err := s.TTL(ctx, "missing"); err != nil || d != pr.TTLMissing {
		t.Fatalf("TTL missing = %v err=%v", d, err)
	}
	if ok, err := s.Expire(ctx, "missing", time.Minute); err != nil || ok {
		t.Fatalf("Expire missing: ok=%v err=%v", ok, err)
	}

	_ = s.Set(ctx, "k", "v", 0)
	if ok, err := s.Expire(ctx, "k", 90*time.Second); err != nil || !ok {
		t.Fatalf("Expire present: ok=%v err=%v", ok, err)
	}
	if d, err := s.TTL(ctx, "k"); err != nil || d != 90*time.Second {
		t.Fatalf("TTL after expire = %v err=%v", d, err)
	}
}

func TestCounters(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, "", nil)

	steps := []struct {
		name string
		do   func() (int64, error)
		want int64
	}{
		{"incr", func() (int64, error) { return s.Increment(ctx, "hits") }, 1},
		{"incrby", func() (int64, error) { return s.IncrementBy(ctx, "hits", 5) }, 6},
		{"decr", func() (int64, error) { return s.Decrement(ctx, "hits") }, 5},
		{"decrby", func() (int64, error) { return s.DecrementBy(ctx, "hits", 10) }, -5},
	}
	for _, st := range steps {
		got, err := st.do()
		if err != nil || got != st.want {
			t.Fatalf("%s: got %d err=%v want %d", st.name, got, err, st.want)
		}
	}

	// counters are plain integers, readable through the JSON codec
	var n int64
	if ok, err := s.Get(ctx, "hits", &n); err != nil || !ok || n != -5 {
		t.Fatalf("Get counter: ok=%v err=%v n=%d", ok, err, n)
	}
}

func TestAlternateCodec(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestStore(t, "", func(c *Config) { c.Codec = codec.Msgpack{} })

	in := user{ID: "2", Name: "Bob"}
	if err := s.Set(ctx, "u", in, 0); err != nil {
		t.Fatal(err)
	}
	var out user
	if ok, err := s.Get(ctx, "u", &out); err != nil || !ok || out != in {
		t.Fatalf("msgpack round trip: ok=%v err=%v out=%+v", ok, err, out)
	}
}

func TestLifecycleEventsAreLogged(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	log := &recLogger{}
	s, err := New(Config{URL: "redis://" + mr.Addr(), Logger: log})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.HasKey(ctx, "x"); err != nil {
		t.Fatalf("HasKey: %v", err)
	}
	if !log.has("info", "connected to redis") {
		t.Fatalf("expected connect event")
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !log.has("warn", "redis connection closed") {
		t.Fatalf("expected close event")
	}
	// second close is a no-op
	if err := s.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDialErrorIsLoggedAndUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close() // nothing listens on addr any more

	log := &recLogger{}
	s, err := New(Config{URL: "redis://" + addr, MaxRetries: -1, Logger: log})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(context.Background())

	var out string
	_, err = s.Get(context.Background(), "k", &out)
	if !errors.Is(err, cacheable.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !log.has("error", "redis connection error") {
		t.Fatalf("expected connection error event")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, cacheable.ErrInvalidConfiguration) {
		t.Fatalf("missing url: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := New(Config{URL: "http://nope"}); !errors.Is(err, cacheable.ErrInvalidConfiguration) {
		t.Fatalf("bad url: expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := NewFromClient(nil, "", nil); !errors.Is(err, ErrNilClient) {
		t.Fatalf("nil client: expected ErrNilClient, got %v", err)
	}
}

func TestNewFromClientDoesNotCloseClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	owner, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer owner.Close(ctx)

	s, err := NewFromClient(owner.Client(), "shared:", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "still", "open", 0); err != nil {
		t.Fatalf("client closed by non-owning store: %v", err)
	}
	if !mr.Exists("shared:still") {
		t.Fatalf("expected prefixed key from shared client store")
	}
}

func TestStoredNullReadsAsMissThroughWrapper(t *testing.T) {
	ctx := context.Background()

	t.Run("struct", func(t *testing.T) {
		s, mr, _ := newTestStore(t, "", nil)
		_ = mr.Set("u", "null")

		calls := 0
		v, err := cacheable.MustNew[user](s, cacheable.Descriptor{Key: "u"}, cacheable.Options{}).
			Do(ctx, func(context.Context) (user, error) {
				calls++
				return user{ID: "1", Name: "Ada"}, nil
			})
		if err != nil || calls != 1 || v.Name != "Ada" {
			t.Fatalf("v=%+v err=%v calls=%d", v, err, calls)
		}
		if raw, _ := mr.Get("u"); raw != `{"id":"1","name":"Ada"}` {
			t.Fatalf("null entry not replaced: %q", raw)
		}
	})

	t.Run("int", func(t *testing.T) {
		s, mr, _ := newTestStore(t, "", nil)
		_ = mr.Set("n", " null\n")

		calls := 0
		v, err := cacheable.MustNew[int](s, cacheable.Descriptor{Key: "n"}, cacheable.Options{}).
			Do(ctx, func(context.Context) (int, error) {
				calls++
				return 42, nil
			})
		if err != nil || calls != 1 || v != 42 {
			t.Fatalf("v=%d err=%v calls=%d", v, err, calls)
		}
	})

	t.Run("msgpack nil", func(t *testing.T) {
		s, _, _ := newTestStore(t, "", func(c *Config) { c.Codec = codec.Msgpack{} })
		if err := s.Set(ctx, "m", nil, 0); err != nil {
			t.Fatal(err)
		}
		var n int
		if ok, err := s.Get(ctx, "m", &n); err != nil || ok {
			t.Fatalf("expected miss for nil entry, ok=%v err=%v", ok, err)
		}
	})
}

func TestDialedConnExposesSyscallConn(t *testing.T) {
	mr := miniredis.RunT(t)
	dial := newLifecycleHook(cacheable.NopLogger{}).DialHook(func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	})

	conn, err := dial(context.Background(), "tcp", mr.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sc, ok := conn.(syscall.Conn)
	if !ok {
		t.Fatalf("wrapped conn must implement syscall.Conn")
	}
	if _, err := sc.SyscallConn(); err != nil {
		t.Fatalf("SyscallConn: %v", err)
	}
}

func TestNewFromClientAddsNoLifecycleHook(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	ownerLog, sharedLog := &recLogger{}, &recLogger{}

	owner, err := New(Config{URL: "redis://" + mr.Addr(), Logger: ownerLog})
	if err != nil {
		t.Fatal(err)
	}
	defer owner.Close(ctx)

	s, err := NewFromClient(owner.Client(), "", sharedLog)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", 1, 0); err != nil {
		t.Fatal(err)
	}

	if n := ownerLog.count("info", "connected to redis"); n != 1 {
		t.Fatalf("connect logged %d times by owner, want 1", n)
	}
	if sharedLog.has("info", "connected to redis") {
		t.Fatalf("shared-client store must not log connection events")
	}
}

func TestKeysEscapesPrefixGlob(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newTestStore(t, "app[1]*:", nil)

	if err := s.Set(ctx, "a", 1, 0); err != nil {
		t.Fatal(err)
	}
	// would match an unescaped "app[1]*:*"
	_ = mr.Set("app1zz:b", "1")

	got, err := s.Keys(ctx, "*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("Keys = %v, want [a]", got)
	}
}
