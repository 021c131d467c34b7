package store

import (
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Options configures how OpenBolt opens the two underlying bbolt files.
// Mirrors the teacher's ParseOptions/DefaultParseOptions shape
// (pkg/s57/options.go): a zero-value-safe plain struct with a
// DefaultOptions constructor, no env or file parsing here — that belongs
// to a CLI, out of scope for this package.
type Options struct {
	// FileMode is the Unix permission bits used when creating the two
	// underlying bbolt files. Zero means 0644.
	FileMode os.FileMode

	// Timeout bounds how long Open waits to acquire the bbolt file
	// lock before giving up. Zero means wait indefinitely, bbolt's own
	// default.
	Timeout time.Duration

	// ReadOnly opens both databases read-only; Add/Put/Del will fail.
	ReadOnly bool

	// NoSync disables fsync after every write transaction, trading
	// durability for throughput. Matches bolt.Options.NoSync.
	NoSync bool
}

// DefaultOptions returns the options OpenBolt uses when none are given:
// 0644 files, no open timeout, read/write, fsync on.
func DefaultOptions() Options {
	return Options{FileMode: 0644}
}

func (o Options) fileMode() os.FileMode {
	if o.FileMode == 0 {
		return 0644
	}
	return o.FileMode
}

func (o Options) boltOptions() *bolt.Options {
	return &bolt.Options{
		Timeout:  o.Timeout,
		ReadOnly: o.ReadOnly,
		NoSync:   o.NoSync,
	}
}
