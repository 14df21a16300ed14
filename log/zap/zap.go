// Package zap adapts a *zap.Logger to cacheable.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheable"
)

var _ cacheable.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "cacheable"; nil l => zap.NewNop().
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("cacheable")}
}

func (z Logger) Debug(msg string, f cacheable.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cacheable.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cacheable.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cacheable.Fields) { z.L.Error(msg, fields(f)...) }

// fields emits keys in sorted order; errors go through zap.NamedError.
func fields(f cacheable.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
