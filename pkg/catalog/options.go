package catalog

import (
	"fmt"
	"io"

	"github.com/slazav/vmap2/pkg/vmap2"
)

// Options configures Build/BuildFromDir and StoreCache. Mirrors the
// teacher's LoadOptions/DefaultLoadOptions pairing (pkg/v1/parallel.go):
// zero-value-safe, no env or file parsing here.
type Options struct {
	// StoreOptions is passed through to every store open Build or
	// StoreCache.Get performs.
	StoreOptions vmap2.Options

	// Progress is an optional callback invoked once a store has been
	// successfully indexed by Build. Parameters: (done, total). Build
	// aborts on the first failing store without calling Progress for it;
	// StoreCache never calls Progress, since eviction is not a batch
	// operation with a natural "total" to report against.
	Progress func(done, total int)

	// ErrorLog is an optional writer; Build writes one line for whichever
	// store aborted the build, and StoreCache writes one line per store
	// that failed to close during eviction. Mirrors the teacher's
	// LoadOptions.ErrorLog.
	ErrorLog io.Writer
}

// DefaultOptions returns the options Build/BuildFromDir/NewStoreCache use
// when none are given.
func DefaultOptions() Options {
	return Options{StoreOptions: vmap2.DefaultOptions()}
}

func (o Options) logf(format string, args ...interface{}) {
	if o.ErrorLog != nil {
		fmt.Fprintf(o.ErrorLog, format, args...)
	}
}
