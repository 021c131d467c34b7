package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/slazav/vmap2/pkg/vmap2"
)

func makeStore(t *testing.T, dir, name string, pt vmap2.Point, typ uint32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	s, err := vmap2.Open(path, true)
	if err != nil {
		t.Fatalf("Open %s: %v", path, err)
	}
	o := vmap2.NewObject(typ)
	o.Geometry = vmap2.MultiLine{{pt}}
	if _, err := s.Add(o); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestBuildAndQuery(t *testing.T) {
	dir := t.TempDir()
	typ, err := vmap2.MakeType(vmap2.ClassPoint, 1)
	if err != nil {
		t.Fatalf("MakeType: %v", err)
	}
	p1 := makeStore(t, dir, "north", vmap2.Point{X: 10, Y: 10}, typ)
	p2 := makeStore(t, dir, "south", vmap2.Point{X: -10, Y: -10}, typ)

	cat, err := BuildFromDir(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("BuildFromDir: %v", err)
	}
	if len(cat.Entries()) != 2 {
		t.Fatalf("Entries() = %d, want 2", len(cat.Entries()))
	}

	got := cat.Query(vmap2.Rect{X: 5, Y: 5, W: 10, H: 10})
	if len(got) != 1 || got[0].Path != p1 {
		t.Fatalf("Query(north) = %v, want [%s]", got, p1)
	}

	got = cat.Query(vmap2.Rect{X: -15, Y: -15, W: 10, H: 10})
	if len(got) != 1 || got[0].Path != p2 {
		t.Fatalf("Query(south) = %v, want [%s]", got, p2)
	}
}

func TestBuildReportsProgressAndErrors(t *testing.T) {
	dir := t.TempDir()
	typ, _ := vmap2.MakeType(vmap2.ClassPoint, 1)
	p1 := makeStore(t, dir, "a", vmap2.Point{X: 1, Y: 1}, typ)

	var mu sync.Mutex
	var calls [][2]int
	var errLog strings.Builder
	opts := DefaultOptions()
	opts.Progress = func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}
	opts.ErrorLog = &errLog

	if _, err := Build([]string{p1}, opts); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(calls) != 1 || calls[0] != [2]int{1, 1} {
		t.Fatalf("Progress calls = %v, want [[1 1]]", calls)
	}
	if errLog.Len() != 0 {
		t.Fatalf("ErrorLog = %q, want empty on success", errLog.String())
	}

	missing := filepath.Join(dir, "does-not-exist")
	if _, err := Build([]string{missing}, opts); err == nil {
		t.Fatal("Build over a missing store should fail")
	}
	if !strings.Contains(errLog.String(), missing) {
		t.Fatalf("ErrorLog = %q, want it to mention %s", errLog.String(), missing)
	}
}

func TestStoreCacheEviction(t *testing.T) {
	dir := t.TempDir()
	typ, _ := vmap2.MakeType(vmap2.ClassPoint, 1)
	p1 := makeStore(t, dir, "a", vmap2.Point{X: 1, Y: 1}, typ)
	p2 := makeStore(t, dir, "b", vmap2.Point{X: 2, Y: 2}, typ)

	cache := NewStoreCache(1)
	if _, err := cache.Get(p1); err != nil {
		t.Fatalf("Get p1: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len = %d, want 1", cache.Len())
	}
	if _, err := cache.Get(p2); err != nil {
		t.Fatalf("Get p2: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("Len after second open = %d, want 1 (p1 should be evicted)", cache.Len())
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestStoreCacheAppliesStoreOptions(t *testing.T) {
	dir := t.TempDir()
	typ, _ := vmap2.MakeType(vmap2.ClassPoint, 1)
	p1 := makeStore(t, dir, "a", vmap2.Point{X: 1, Y: 1}, typ)

	opts := DefaultOptions()
	opts.StoreOptions.ReadOnly = true
	cache := NewStoreCacheWithOptions(2, opts)

	s, err := cache.Get(p1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	o := vmap2.NewObject(typ)
	o.Geometry = vmap2.MultiLine{{{X: 9, Y: 9}}}
	if _, err := s.Add(o); err == nil {
		t.Fatal("Add on a read-only cached store should fail")
	}
	cache.Clear()
}

func TestImportParallel(t *testing.T) {
	dir := t.TempDir()
	files := []string{}
	for i, name := range []string{"a.txt", "b.txt"} {
		p := filepath.Join(dir, name)
		text := "point:0x1\nname " + name + "\ncrds 0 0\n\n"
		if err := os.WriteFile(p, []byte(text), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		files = append(files, p)
		_ = i
	}

	var mu sync.Mutex
	progressCalls := 0
	dst := vmap2.NewMemory()
	n, errs := ImportParallel(dst, files, ImportOptions{
		Workers: 2,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			progressCalls++
		},
	})
	if len(errs) != 0 {
		t.Fatalf("ImportParallel errors: %v", errs)
	}
	if n != 2 {
		t.Fatalf("ImportParallel added %d, want 2", n)
	}
	if progressCalls != 2 {
		t.Fatalf("Progress called %d times, want 2", progressCalls)
	}
}

func TestImportParallelLogsParseErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("not a valid vmap2 record\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var errLog strings.Builder
	dst := vmap2.NewMemory()
	_, errs := ImportParallel(dst, []string{bad}, ImportOptions{
		Workers:    1,
		SkipErrors: true,
		ErrorLog:   &errLog,
	})
	if len(errs) == 0 {
		t.Fatal("expected a parse error for a malformed file")
	}
	if !strings.Contains(errLog.String(), bad) {
		t.Fatalf("ErrorLog = %q, want it to mention %s", errLog.String(), bad)
	}
}
