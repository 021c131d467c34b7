// Package store implements the VMap2 object table: ordered-by-id storage
// for object.Object records, kept consistent with an internal/index spatial
// index on every add/put/del. Two backends share one contract, Store: an
// in-memory MemStore and a bbolt-backed BoltStore.
package store

import (
	"github.com/slazav/vmap2/internal/geom"
	"github.com/slazav/vmap2/internal/object"
)

// Store is the VMap2 object table plus its spatial index, grounded on
// VMap2's own dispatch (originally one class branching on a bdb flag;
// here, two types sharing this interface).
type Store interface {
	// Add inserts o, assigning it the next id (max existing id + 1, or 0
	// for an empty table). Fails with *errs.ErrEmptyObject if o has no
	// geometry, or *errs.ErrIdOverflow if the next id would be the
	// reserved sentinel object.NoType... (0xFFFFFFFF).
	Add(o object.Object) (uint32, error)

	// Put overwrites the object stored at id. Fails with
	// *errs.ErrEmptyObject if o has no geometry, or *errs.ErrNotFound if
	// id is not currently present. Never creates a new id.
	Put(id uint32, o object.Object) error

	// Get returns the object stored at id, or *errs.ErrNotFound.
	Get(id uint32) (object.Object, error)

	// Del removes id and its index entries, or fails with
	// *errs.ErrNotFound.
	Del(id uint32) error

	// Find returns the spatial index's candidate ids of the given type for
	// r: every id whose bbox intersects r, plus possibly ids that only share
	// a geohash cell with r.
	Find(typ uint32, r geom.Rect) (map[uint32]bool, error)

	// Types returns every distinct type present in the table.
	Types() ([]uint32, error)

	// BBox returns the union bbox of the spatial index.
	BBox() (geom.Rect, error)

	// IterStart resets the table iterator to the first (lowest-id)
	// record.
	IterStart() error

	// IterNext returns the current (id, object) pair and advances.
	// Calling it once IterEnd is true is an error.
	IterNext() (uint32, object.Object, error)

	// IterEnd reports whether the iterator has been exhausted.
	IterEnd() bool

	Close() error
}

// FindByClass builds the composite type from class and tnum and calls
// Find, matching spec.md's "find(class, type_number, range)" convenience
// overload of the lower-level "find(type, range)".
func FindByClass(s Store, class object.Class, tnum uint32, r geom.Rect) (map[uint32]bool, error) {
	typ, err := object.MakeType(class, tnum)
	if err != nil {
		return nil, err
	}
	return s.Find(typ, r)
}
