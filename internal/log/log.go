// Package log provides the helpers the sort engine's components use for
// their optional *zap.Logger: each component receives its logger through
// its constructor and falls back to a no-op logger when none is given.
package log

import "go.uber.org/zap"

// NewNop returns a logger that discards everything, used as the engine's
// default when the caller does not configure one.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// OrDefault returns l if non-nil, otherwise a no-op logger. Components call
// this defensively since Config.Logger is an optional field.
func OrDefault(l *zap.Logger) *zap.Logger {
	if l == nil {
		return NewNop()
	}
	return l
}
