// Package log re-exports the logger interface used throughout dledger so
// that call sites depend on this package rather than on luxfi/log
// directly, the same indirection the teacher codebase uses for its own
// log package.
package log

import (
	"github.com/luxfi/log"
)

// Logger is the structured logger every dledger component takes as a
// constructor argument. Info/Debug/Warn/Error take geth-style
// (msg string, ctx ...interface{}) key/value pairs, matching the
// teacher's own call sites (ai/bridge.go's logger.Info("...", "k", v)).
type Logger = log.Logger

// NewNoOp returns a logger that discards everything. It is the default
// used by tests and by components constructed without an explicit
// logger.
func NewNoOp() Logger {
	return log.NewNoOpLogger()
}
