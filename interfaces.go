// interfaces.go: ambient interfaces shared across every tier and component.
package stratacache

import "github.com/agilira/go-timecache"

// Logger defines a minimal logging interface with zero overhead when unused.
// Implementations should use structured logging and avoid allocating on
// the hot path.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger discards every message. It is the default when Config.Logger
// is nil.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider supplies the current time to every suspendable component
// (tiers, the adaptive TTL calculator, the circuit breaker). Injecting a
// fake TimeProvider is how tests exercise TTL expiry and breaker timeouts
// deterministically, without sleeping.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since the Unix epoch.
	Now() int64
}

// systemTimeProvider is the default TimeProvider, backed by go-timecache's
// cached clock rather than a raw time.Now() call per operation.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
