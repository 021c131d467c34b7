// Package vmap2 is the public API for VMap2: a persistent, type-indexed,
// spatially-indexed container of cartographic objects. It wraps
// internal/object, internal/store and internal/errs behind a stable
// surface, the same wrapper-over-internal-package layout the rest of this
// module's example corpus uses for its own public parser facade.
package vmap2

import (
	"bufio"
	"io"

	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geom"
	"github.com/slazav/vmap2/internal/object"
	"github.com/slazav/vmap2/internal/store"
)

// Object, Class, Align, Opt and the object-model helpers are the same
// types internal/object defines; there is nothing chart-shaped to convert
// here; an Object already is the caller-facing value.
type (
	Object = object.Object
	Class  = object.Class
	Align  = object.Align
	Opt    = object.Opt
)

const (
	ClassPoint   = object.ClassPoint
	ClassLine    = object.ClassLine
	ClassPolygon = object.ClassPolygon
	ClassText    = object.ClassText
	ClassNone    = object.ClassNone
)

const (
	AlignSW = object.AlignSW
	AlignW  = object.AlignW
	AlignNW = object.AlignNW
	AlignN  = object.AlignN
	AlignNE = object.AlignNE
	AlignE  = object.AlignE
	AlignSE = object.AlignSE
	AlignS  = object.AlignS
	AlignC  = object.AlignC
)

// NoType is the reserved "none" type/id sentinel, 0xFFFFFFFF.
const NoType = object.NoType

// NewObject returns a freshly initialized object of the given type: NaN
// angle, scale 1, alignment SW, no reference.
func NewObject(typ uint32) Object { return object.New(typ) }

// MakeType, ParseType, PrintType, ParseAlign and PrintAlign re-export the
// object-model's type/alignment string conversions.
var (
	MakeType   = object.MakeType
	GetClass   = object.GetClass
	ParseType  = object.ParseType
	PrintType  = object.PrintType
	ParseAlign = object.ParseAlign
	PrintAlign = object.PrintAlign
)

// Rect and Point are the geometry primitives used throughout the API.
type (
	Rect  = geom.Rect
	Point = geom.Point
	Line  = geom.Line
)

// MultiLine is an object's geometry: an ordered sequence of line segments.
type MultiLine = geom.MultiLine

// Error kinds, re-exported so callers can use errors.As against this
// package instead of reaching into internal/errs.
type (
	ErrEmptyObject    = errs.ErrEmptyObject
	ErrNotFound       = errs.ErrNotFound
	ErrIdOverflow     = errs.ErrIdOverflow
	ErrBadTypeString  = errs.ErrBadTypeString
	ErrBadAlignString = errs.ErrBadAlignString
	ErrDecode         = errs.ErrDecode
	ErrIo             = errs.ErrIo
	ErrInvariant      = errs.ErrInvariant
)

// Store is a VMap2 object table plus its spatial index: add/put/get/del by
// id, find by type and bounding box, full-table iteration, and summary
// queries (Types, BBox). See internal/store.Store for the exact contract;
// this interface is identical, just re-exported at the package boundary.
type Store interface {
	Add(o Object) (uint32, error)
	Put(id uint32, o Object) error
	Get(id uint32) (Object, error)
	Del(id uint32) error
	Find(typ uint32, r Rect) (map[uint32]bool, error)
	Types() ([]uint32, error)
	BBox() (Rect, error)
	IterStart() error
	IterNext() (uint32, Object, error)
	IterEnd() bool
	Close() error
}

// FindByClass builds the composite type from class and tnum before
// delegating to s.Find, mirroring spec's find(class, type_number, range)
// convenience overload.
func FindByClass(s Store, class Class, tnum uint32, r Rect) (map[uint32]bool, error) {
	typ, err := MakeType(class, tnum)
	if err != nil {
		return nil, err
	}
	return s.Find(typ, r)
}

// NewMemory returns an empty, in-process Store with no backing file.
func NewMemory() Store { return store.NewMemory() }

// Options configures how Open opens the two underlying bbolt files:
// permissions, lock-wait timeout, read-only mode and fsync behavior.
// Re-exported from internal/store, following the teacher's
// ParseOptions/DefaultParseOptions pairing (pkg/s57/options.go).
type Options = store.Options

// DefaultOptions returns the options Open uses when none are given.
var DefaultOptions = store.DefaultOptions

// Open opens (or, if create is true, creates) a persistent Store rooted at
// path, using DefaultOptions. See internal/store.OpenBolt / spec §6.1 for
// the on-disk layout.
func Open(path string, create bool) (Store, error) {
	return store.OpenBolt(path, create)
}

// OpenWithOptions is Open with explicit Options.
func OpenWithOptions(path string, create bool, opts Options) (Store, error) {
	return store.OpenBoltWithOptions(path, create, opts)
}

// Dump writes every object in s to w in the text-dump form (§6.2):
// id order, one blank-line-separated record per object.
func Dump(w io.Writer, s Store) error {
	if err := s.IterStart(); err != nil {
		return err
	}
	for !s.IterEnd() {
		_, o, err := s.IterNext()
		if err != nil {
			return err
		}
		if err := object.Write(w, o); err != nil {
			return err
		}
	}
	return nil
}

// Import reads text-dump objects from r and adds each to s, in order.
// Returns the number of objects added.
func Import(s Store, r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		o, err := object.Read(br)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := s.Add(o); err != nil {
			return n, err
		}
		n++
	}
}
