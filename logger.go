package cacheable

// Fields carries structured context for a log line.
type Fields map[string]any

// Logger is the leveled logging collaborator used by the wrapper and the
// store adapters. Adapters for zap, logrus and slog live under log/.
// A nil Logger in Options or provider configs disables logging.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
