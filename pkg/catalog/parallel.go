package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/slazav/vmap2/internal/object"
	"github.com/slazav/vmap2/pkg/vmap2"
)

// ImportOptions controls ImportParallel's concurrency, error handling and
// observability. Adapted from the teacher's LoadOptions (pkg/v1/parallel.go):
// Workers/SkipErrors/Progress/ErrorLog all carry over (the teacher's
// Parallel toggle is dropped — ImportParallel's whole purpose is to run in
// parallel, there is no serial mode to toggle to here).
type ImportOptions struct {
	// Workers is the number of goroutines parsing files concurrently.
	// 0 defaults to runtime.NumCPU().
	Workers int

	// SkipErrors continues importing the remaining files when one file
	// fails to parse or add; the error is collected instead of aborting.
	SkipErrors bool

	// Progress is an optional callback called once per path as soon as
	// its parse result is known (successful or not), before the add
	// stage runs. Parameters: (done, total), mirroring the teacher's
	// LoadOptions.Progress.
	Progress func(done, total int)

	// ErrorLog is an optional writer; one line is written per path that
	// fails to parse and per object that fails to add, mirroring the
	// teacher's LoadOptions.ErrorLog.
	ErrorLog io.Writer
}

func (o ImportOptions) logf(format string, args ...interface{}) {
	if o.ErrorLog != nil {
		fmt.Fprintf(o.ErrorLog, format, args...)
	}
}

// ImportParallel parses each of paths (VMap2 text-dump files, §6.2)
// concurrently, then adds every parsed object to dst on the calling
// goroutine, one file at a time, preserving the order of paths. Parsing is
// CPU-bound and embarrassingly parallel across files; writing a store is
// not (spec §5's single-writer model), so only the parse stage is
// parallelized, mirroring the teacher's LoadCellsParallel worker pool.
func ImportParallel(dst vmap2.Store, paths []string, opts ImportOptions) (int, []error) {
	if len(paths) == 0 {
		return 0, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type parseResult struct {
		index   int
		objects []object.Object
		err     error
	}

	jobs := make(chan int, len(paths))
	results := make(chan parseResult, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				objs, err := parseFile(paths[idx])
				results <- parseResult{index: idx, objects: objs, err: err}
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([][]object.Object, len(paths))
	errsByIndex := make([]error, len(paths))
	done := 0
	for r := range results {
		ordered[r.index] = r.objects
		errsByIndex[r.index] = r.err
		done++
		if opts.Progress != nil {
			opts.Progress(done, len(paths))
		}
		if r.err != nil {
			opts.logf("%s: %v\n", paths[r.index], r.err)
		}
	}

	var errs []error
	added := 0
	for i, objs := range ordered {
		if err := errsByIndex[i]; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", paths[i], err))
			if !opts.SkipErrors {
				return added, errs
			}
			continue
		}
		for _, o := range objs {
			if _, err := dst.Add(o); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", paths[i], err))
				opts.logf("%s: %v\n", paths[i], err)
				if !opts.SkipErrors {
					return added, errs
				}
				continue
			}
			added++
		}
	}
	return added, errs
}

func parseFile(path string) ([]object.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var objs []object.Object
	br := bufio.NewReader(f)
	for {
		o, err := object.Read(br)
		if err == io.EOF {
			return objs, nil
		}
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
}
