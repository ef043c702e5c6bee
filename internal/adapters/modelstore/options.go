package modelstore

import (
	"github.com/okian/lyrics/pkg/logger"
)

// Option applies a configuration option to the Badger store.
type Option func(*Badger)

// WithLogger sets a custom logger. Badger's own log lines are routed to it
// at debug level.
func WithLogger(lg logger.Logger) Option {
	return func(b *Badger) {
		if lg != nil {
			b.logger = lg
		}
	}
}

// WithSyncWrites toggles fsync on every write. It is on by default.
func WithSyncWrites(on bool) Option {
	return func(b *Badger) { b.syncWrites = on }
}

// WithValueLogFileSize sets the badger value log file size in bytes.
func WithValueLogFileSize(n int64) Option {
	return func(b *Badger) {
		if n >= 1<<20 {
			b.valueLogFileSize = n
		}
	}
}
