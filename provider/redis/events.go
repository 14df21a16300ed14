package redis

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/cacheable"
)

// lifecycleHook reports connect, error, close and reconnect events to the
// logger. It never changes command outcomes.
type lifecycleHook struct {
	log       cacheable.Logger
	open      atomic.Int64
	connected atomic.Bool
}

var _ goredis.Hook = (*lifecycleHook)(nil)

func newLifecycleHook(log cacheable.Logger) *lifecycleHook {
	return &lifecycleHook{log: log}
}

func (h *lifecycleHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		// dialing with no open connection after we had one is a reconnect
		if h.connected.Load() && h.open.Load() == 0 {
			h.log.Info("reconnecting to redis", cacheable.Fields{"addr": addr})
		}
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.log.Error("redis connection error", cacheable.Fields{"addr": addr, "err": err})
			return nil, err
		}
		h.connected.Store(true)
		h.open.Add(1)
		h.log.Info("connected to redis", cacheable.Fields{"addr": addr})
		return &observedConn{Conn: conn, hook: h, addr: addr}, nil
	}
}

func (h *lifecycleHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return next
}

func (h *lifecycleHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return next
}

type observedConn struct {
	net.Conn
	hook *lifecycleHook
	addr string
	once sync.Once
}

func (c *observedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() {
		c.hook.open.Add(-1)
		c.hook.log.Warn("redis connection closed", cacheable.Fields{"addr": c.addr})
	})
	return err
}

var errNoRawConn = errors.New("redis provider: connection has no raw conn")

// SyscallConn exposes the socket so the pool's stale-connection check keeps working.
func (c *observedConn) SyscallConn() (syscall.RawConn, error) {
	sc, ok := c.Conn.(syscall.Conn)
	if !ok {
		return nil, errNoRawConn
	}
	return sc.SyscallConn()
}
