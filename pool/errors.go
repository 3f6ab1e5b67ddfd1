package pool

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Common errors returned by pool constructors and config validation.
var (
	ErrNoAllocator      = errors.New("no allocator configured")
	ErrNoRelease        = errors.New("no release hook configured")
	ErrInvalidSize      = errors.New("invalid size")
	ErrTooManyShards    = errors.New("shard count exceeds MaxShardCount")
	ErrTooManySlots     = errors.New("per-shard slot count exceeds MaxShardSlots")
	ErrExhausted        = errors.New("pool exhausted")
	ErrQueueFull        = errors.New("backpressure queue full")
	ErrInvalidObject    = errors.New("object does not belong to this pool, is already free, or failed validation")
	ErrInsufficientFree = errors.New("not enough free slots to shrink by the requested amount")
	ErrInvalidPool      = errors.New("pool has been destroyed")
)

// ErrorKind enumerates the failure categories reported to an ErrorSink. It
// is distinct from the Go error values returned to callers: ErrorKind is
// what gets logged, the error is what gets returned.
type ErrorKind int

const (
	KindInvalidPool ErrorKind = iota
	KindInvalidObject
	KindExhausted
	KindAllocFailed
	KindInvalidSize
	KindInsufficientFree
	KindQueueFull
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidPool:
		return "InvalidPool"
	case KindInvalidObject:
		return "InvalidObject"
	case KindExhausted:
		return "Exhausted"
	case KindAllocFailed:
		return "AllocFailed"
	case KindInvalidSize:
		return "InvalidSize"
	case KindInsufficientFree:
		return "InsufficientFree"
	case KindQueueFull:
		return "QueueFull"
	default:
		return "Unknown"
	}
}

// ErrorSink receives exactly one report per distinct failure. Implementers
// must not re-enter the pool from within a sink call.
type ErrorSink func(kind ErrorKind, message string, context any)

var (
	defaultLoggerOnce sync.Once
	defaultLogger     *zap.Logger
)

func defaultZapLogger() *zap.Logger {
	defaultLoggerOnce.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		defaultLogger = l
	})
	return defaultLogger
}

// defaultErrorSink writes structured failure reports through zap when the
// caller does not configure one explicitly.
func defaultErrorSink(kind ErrorKind, message string, context any) {
	defaultZapLogger().Warn("pool error",
		zap.String("kind", kind.String()),
		zap.String("message", message),
		zap.Any("context", context),
	)
}
