// Package index implements the spatial index that maps (type, bounding
// box) to object ids: a geohash-keyed multimap with an in-memory backend
// and a bbolt-backed persistent one.
//
// The shared lookup algorithm mirrors GeoHashDB::Impl from the upstream
// mapdb/db_geohash.cpp: a rectangle query covers itself with up to 4
// geohashes (internal/geohash.EncodeRect4), then, for every prefix of every
// covering hash, asks the backend for objects stored exactly at that
// prefix (coarser objects whose own hash is shorter and happens to equal
// it) and, for the full covering hash itself, for objects stored at or
// below it (finer objects nested inside the queried cell). Each backend
// only has to implement that one primitive, getHash; Put/Del/Get are
// written once, here, against the backend interface.
package index

import (
	"encoding/binary"
	"io"

	"github.com/slazav/vmap2/internal/geohash"
	"github.com/slazav/vmap2/internal/geom"
)

// Index is the spatial index facade used by internal/store.
type Index interface {
	// Put records that object id, of the given type, covers bbox.
	// A no-op if bbox is empty.
	Put(id, typ uint32, bbox geom.Rect) error

	// Del removes the (id, bbox, type) entry added by a prior Put.
	// A no-op if the entry is absent.
	Del(id, typ uint32, bbox geom.Rect) error

	// Get returns the candidate ids of the given type for r: every object
	// whose geohash cells overlap the cells covering r. This includes every
	// object whose stored bbox intersects r, and can also include objects
	// that only share a covering cell with r without touching r itself.
	Get(typ uint32, r geom.Rect) (map[uint32]bool, error)

	// GetType returns every id stored under the given type, regardless
	// of location.
	GetType(typ uint32) (map[uint32]bool, error)

	// Types returns every distinct type currently present.
	Types() ([]uint32, error)

	// BBox returns the rectangle spanning every indexed geohash cell.
	BBox() (geom.Rect, error)

	// Dump writes "id\ttype\thash" lines for every entry, for diagnostics.
	Dump(w io.Writer) error

	Close() error
}

// backend is the primitive a storage engine must supply. getHash returns
// the ids stored under type with a hash equal to prefix (exact==true) or
// with a hash that starts with prefix (exact==false).
type backend interface {
	putOne(id, typ uint32, hash string) error
	delOne(id, typ uint32, hash string) error
	getHash(typ uint32, prefix string, exact bool) (map[uint32]bool, error)
	types() ([]uint32, error)
	bbox() (geom.Rect, error)
	dump(w io.Writer) error
	close() error
}

type index struct{ b backend }

func (x *index) Put(id, typ uint32, bbox geom.Rect) error {
	if bbox.IsEmpty() {
		return nil
	}
	for h := range geohash.EncodeRect4(bbox, geohash.MaxLen) {
		if err := x.b.putOne(id, typ, h); err != nil {
			return err
		}
	}
	return nil
}

func (x *index) Del(id, typ uint32, bbox geom.Rect) error {
	if bbox.IsEmpty() {
		return nil
	}
	for h := range geohash.EncodeRect4(bbox, geohash.MaxLen) {
		if err := x.b.delOne(id, typ, h); err != nil {
			return err
		}
	}
	return nil
}

func (x *index) Get(typ uint32, r geom.Rect) (map[uint32]bool, error) {
	result := map[uint32]bool{}
	if r.IsEmpty() {
		return result, nil
	}
	done := map[string]bool{}
	for h := range geohash.EncodeRect4(r, geohash.MaxLen) {
		for i := 0; i <= len(h); i++ {
			prefix := h[:i]
			if done[prefix] {
				continue
			}
			done[prefix] = true
			exact := i < len(h)
			ids, err := x.b.getHash(typ, prefix, exact)
			if err != nil {
				return nil, err
			}
			for id := range ids {
				result[id] = true
			}
		}
	}
	return result, nil
}

func (x *index) GetType(typ uint32) (map[uint32]bool, error) {
	return x.b.getHash(typ, "", false)
}

func (x *index) Types() ([]uint32, error) { return x.b.types() }
func (x *index) BBox() (geom.Rect, error) { return x.b.bbox() }
func (x *index) Dump(w io.Writer) error   { return x.b.dump(w) }
func (x *index) Close() error             { return x.b.close() }

// joinKey is the composite key prefix shared by both backends: the 4-byte
// big-endian type followed by the raw ASCII geohash. Grounded on
// GeoHashDB::join_type, which concatenates the same two fields; we fix the
// byte order to big-endian (the original writes the type's native
// in-memory bytes) so the key also sorts correctly by type, which bbolt's
// backend relies on for Types/BBox's prefix-skipping scans.
func joinKey(typ uint32, hash string) []byte {
	k := make([]byte, 4+len(hash))
	binary.BigEndian.PutUint32(k[:4], typ)
	copy(k[4:], hash)
	return k
}

// NewMemory returns an Index backed by an in-process ordered structure.
func NewMemory() Index {
	return &index{b: newMemoryBackend()}
}
