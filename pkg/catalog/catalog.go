// Package catalog answers "which VMap2 stores cover this viewport?" over a
// directory of many store files, without opening every one of them.
// Adapted from the teacher's NOAA-chart-directory ChartIndex
// (pkg/s57/index.go), stripped of anything chart- or download-specific:
// where ChartEntry carries scale/edition/usage-band, catalog.Entry carries
// only what a VMap2 store exposes about itself, its bbox and type set.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhconnelly/rtreego"

	"github.com/slazav/vmap2/internal/geom"
	"github.com/slazav/vmap2/pkg/vmap2"
)

// Entry is the indexed metadata for one store file.
type Entry struct {
	Path  string
	BBox  geom.Rect
	Types []uint32
}

// Bounds implements rtreego.Spatial, converting the store's bbox into an
// R-tree rectangle. A degenerate (zero-area) bbox is padded to a minimal
// rectangle since rtreego requires strictly positive side lengths.
func (e Entry) Bounds() rtreego.Rect {
	const minSide = 1e-9
	w, h := e.BBox.W, e.BBox.H
	if w < minSide {
		w = minSide
	}
	if h < minSide {
		h = minSide
	}
	rect, _ := rtreego.NewRect(rtreego.Point{e.BBox.X, e.BBox.Y}, []float64{w, h})
	return rect
}

// Catalog is a directory's worth of VMap2 stores, indexed by bbox.
type Catalog struct {
	entries []Entry
	rtree   *rtreego.Rtree
}

// BuildFromDir scans root for VMap2 store files (a path with a matching
// "<path>_gh" sibling, per §6.1's two-file persistent layout) and builds a
// Catalog over them.
func BuildFromDir(root string, opts Options) (*Catalog, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, "_gh") {
			return nil
		}
		if _, err := os.Stat(path + "_gh"); err != nil {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: walk %s: %w", root, err)
	}
	return Build(paths, opts)
}

// Build opens each of paths (non-creating, with opts.StoreOptions, which
// is read/write under DefaultOptions) just long enough to read its bbox
// and type set, then closes it again, and indexes the results. Build stops
// at the first failing path and returns its error (there is no SkipErrors
// here — a broken catalog entry is not something a caller should silently
// index around). opts.Progress, if set, is called once a path has been
// successfully indexed; opts.ErrorLog, if set, gets one line for whichever
// path aborted the build.
func Build(paths []string, opts Options) (*Catalog, error) {
	entries := make([]Entry, 0, len(paths))
	rtree := rtreego.NewTree(2, 25, 50)

	for i, p := range paths {
		e, err := buildEntry(p, opts.StoreOptions)
		if err != nil {
			opts.logf("%s: %v\n", p, err)
			return nil, err
		}
		entries = append(entries, e)
		rtree.Insert(e)
		if opts.Progress != nil {
			opts.Progress(i+1, len(paths))
		}
	}

	return &Catalog{entries: entries, rtree: rtree}, nil
}

func buildEntry(p string, storeOpts vmap2.Options) (Entry, error) {
	s, err := vmap2.OpenWithOptions(p, false, storeOpts)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: open %s: %w", p, err)
	}
	bb, err := s.BBox()
	if err != nil {
		s.Close()
		return Entry{}, fmt.Errorf("catalog: bbox %s: %w", p, err)
	}
	types, err := s.Types()
	if err != nil {
		s.Close()
		return Entry{}, fmt.Errorf("catalog: types %s: %w", p, err)
	}
	if err := s.Close(); err != nil {
		return Entry{}, fmt.Errorf("catalog: close %s: %w", p, err)
	}
	return Entry{Path: p, BBox: bb, Types: types}, nil
}

// Query returns every indexed store whose bbox intersects r.
func (c *Catalog) Query(r geom.Rect) []Entry {
	if r.IsEmpty() {
		return nil
	}
	w, h := r.W, r.H
	if w <= 0 {
		w = 1e-9
	}
	if h <= 0 {
		h = 1e-9
	}
	rect, err := rtreego.NewRect(rtreego.Point{r.X, r.Y}, []float64{w, h})
	if err != nil {
		return nil
	}
	spatials := c.rtree.SearchIntersect(rect)
	out := make([]Entry, 0, len(spatials))
	for _, sp := range spatials {
		out = append(out, sp.(Entry))
	}
	return out
}

// Entries returns every store in the catalog, in scan order.
func (c *Catalog) Entries() []Entry { return c.entries }
