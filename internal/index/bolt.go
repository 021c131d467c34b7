package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bolt "go.etcd.io/bbolt"

	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geohash"
	"github.com/slazav/vmap2/internal/geom"
)

// boltBackend persists the same (type,hash)->id multimap as memoryBackend,
// but bbolt's B-tree only allows unique keys, so the id is appended to the
// key (4 big-endian bytes) to emulate BerkeleyDB's DB_DUPSORT duplicate
// handling used by the upstream ImplDB. The value carries the id too,
// redundant with the key suffix, to keep the on-disk record shape obvious
// from a raw bucket dump.
type boltBackend struct {
	db     *bolt.DB
	bucket []byte
}

func newBoltBackend(db *bolt.DB, bucket []byte, readOnly bool) (*boltBackend, error) {
	if !readOnly {
		err := db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucket)
			return err
		})
		if err != nil {
			return nil, &errs.ErrIo{Op: "index: create bucket", Err: err}
		}
	}
	return &boltBackend{db: db, bucket: bucket}, nil
}

// NewBolt returns a bbolt-backed Index storing its entries in the given
// bucket of db. The caller owns db's lifecycle (Close/Sync). readOnly must
// match how db itself was opened: when true, the bucket is assumed to
// already exist and is never created (an Update transaction against a
// bolt.DB opened with Options.ReadOnly fails).
func NewBolt(db *bolt.DB, bucket []byte, readOnly bool) (Index, error) {
	b, err := newBoltBackend(db, bucket, readOnly)
	if err != nil {
		return nil, err
	}
	return &index{b: b}, nil
}

func fullKey(typ uint32, hash string, id uint32) []byte {
	k := make([]byte, 4+len(hash)+4)
	binary.BigEndian.PutUint32(k[:4], typ)
	copy(k[4:4+len(hash)], hash)
	binary.BigEndian.PutUint32(k[4+len(hash):], id)
	return k
}

func (b *boltBackend) putOne(id, typ uint32, hash string) error {
	key := fullKey(typ, hash, id)
	val := make([]byte, 4)
	binary.BigEndian.PutUint32(val, id)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(b.bucket)
		if bk.Get(key) != nil {
			return nil // DB_NODUPDATA: (key,id) already present
		}
		return bk.Put(key, val)
	})
	if err != nil {
		return &errs.ErrIo{Op: "index: put", Err: err}
	}
	return nil
}

func (b *boltBackend) delOne(id, typ uint32, hash string) error {
	key := fullKey(typ, hash, id)
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete(key)
	})
	if err != nil {
		return &errs.ErrIo{Op: "index: del", Err: err}
	}
	return nil
}

func (b *boltBackend) getHash(typ uint32, prefix string, exact bool) (map[uint32]bool, error) {
	result := map[uint32]bool{}
	pfx := joinKey(typ, prefix)
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, v := c.Seek(pfx); k != nil; k, v = c.Next() {
			if exact {
				if len(k) != len(pfx)+4 || !bytes.Equal(k[:len(pfx)], pfx) {
					break
				}
			} else if len(k) < len(pfx) || !bytes.Equal(k[:len(pfx)], pfx) {
				break
			}
			result[binary.BigEndian.Uint32(v)] = true
		}
		return nil
	})
	if err != nil {
		return nil, &errs.ErrIo{Op: "index: get", Err: err}
	}
	return result, nil
}

// types walks the bucket once, jumping straight to the next type's first
// key each time (seeking type+1) rather than stepping through every hash of
// the current type, the same skip used by GeoHashDB::ImplDB::get_types.
func (b *boltBackend) types() ([]uint32, error) {
	var out []uint32
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		k, _ := c.First()
		for k != nil {
			if len(k) < 4 {
				return &errs.ErrInvariant{Reason: "index: malformed key"}
			}
			typ := binary.BigEndian.Uint32(k[:4])
			out = append(out, typ)
			if typ == 0xFFFFFFFF {
				break // no higher type to seek to
			}
			next := make([]byte, 4)
			binary.BigEndian.PutUint32(next, typ+1)
			k, _ = c.Seek(next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// bbox walks the bucket once, skipping past every key sharing the current
// (type,hash) by seeking to hash+"{" (one past 'z', the alphabet's highest
// character), the same trick GeoHashDB::ImplDB::bbox uses.
func (b *boltBackend) bbox() (geom.Rect, error) {
	r := geom.Rect{Empty: true}
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		k, _ := c.First()
		for k != nil {
			if len(k) < 8 {
				return &errs.ErrInvariant{Reason: "index: malformed key"}
			}
			typ := binary.BigEndian.Uint32(k[:4])
			hash := string(k[4 : len(k)-4])
			r.ExpandRect(geohash.Decode(hash))
			k, _ = c.Seek(joinKey(typ, hash+"{"))
		}
		return nil
	})
	if err != nil {
		return geom.Rect{}, err
	}
	return r, nil
}

func (b *boltBackend) dump(w io.Writer) error {
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			typ := binary.BigEndian.Uint32(k[:4])
			hash := string(k[4 : len(k)-4])
			id := binary.BigEndian.Uint32(v)
			if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", id, typ, hash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &errs.ErrIo{Op: "index: dump", Err: err}
	}
	return nil
}

func (b *boltBackend) close() error { return nil }
