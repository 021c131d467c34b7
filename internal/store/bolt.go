package store

import (
	"encoding/binary"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geom"
	"github.com/slazav/vmap2/internal/index"
	"github.com/slazav/vmap2/internal/object"
)

var objectsBucket = []byte("objects")

// BoltStore is the persistent Store: two bbolt databases per §6.1, named
// <path> (object table, key = big-endian u32 id, value = packed object) and
// <path>_gh (spatial index, opened through internal/index.NewBolt).
// Grounded on VMap2's bdb variant, which pairs a DBSimple object table with
// a GeoHashDB index file of the same base name plus "_gh".
type BoltStore struct {
	objDB     *bolt.DB
	ghDB      *bolt.DB
	objBucket []byte
	idx       index.Index

	iterTx     *bolt.Tx
	iterCursor *bolt.Cursor
	iterKey    []byte
	iterVal    []byte
}

// OpenBolt opens (or, if create is true, creates) the two databases rooted
// at path, using DefaultOptions. In open mode both files must already
// exist.
func OpenBolt(path string, create bool) (*BoltStore, error) {
	return OpenBoltWithOptions(path, create, DefaultOptions())
}

// OpenBoltWithOptions is OpenBolt with explicit Options, following the
// teacher's ParseWithOptions/ParseOptions pairing (pkg/s57/s57.go).
func OpenBoltWithOptions(path string, create bool, opts Options) (*BoltStore, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, &errs.ErrIo{Op: "store: open " + path, Err: err}
		}
		if _, err := os.Stat(path + "_gh"); err != nil {
			return nil, &errs.ErrIo{Op: "store: open " + path + "_gh", Err: err}
		}
	}

	mode := opts.fileMode()
	objDB, err := bolt.Open(path, mode, opts.boltOptions())
	if err != nil {
		return nil, &errs.ErrIo{Op: "store: open object table", Err: err}
	}
	ghDB, err := bolt.Open(path+"_gh", mode, opts.boltOptions())
	if err != nil {
		objDB.Close()
		return nil, &errs.ErrIo{Op: "store: open spatial index", Err: err}
	}

	if !opts.ReadOnly {
		err = objDB.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(objectsBucket)
			return err
		})
		if err != nil {
			objDB.Close()
			ghDB.Close()
			return nil, &errs.ErrIo{Op: "store: open", Err: err}
		}
	}

	idx, err := index.NewBolt(ghDB, []byte("gh"), opts.ReadOnly)
	if err != nil {
		objDB.Close()
		ghDB.Close()
		return nil, err
	}

	return &BoltStore{objDB: objDB, ghDB: ghDB, objBucket: objectsBucket, idx: idx}, nil
}

func idKey(id uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, id)
	return k
}

func (s *BoltStore) Add(o object.Object) (uint32, error) {
	if o.IsEmpty() {
		return 0, &errs.ErrEmptyObject{}
	}
	var id uint32
	err := s.objDB.View(func(tx *bolt.Tx) error {
		k, _ := tx.Bucket(s.objBucket).Cursor().Last()
		if k != nil {
			id = binary.BigEndian.Uint32(k) + 1
		}
		return nil
	})
	if err != nil {
		return 0, &errs.ErrIo{Op: "store: add", Err: err}
	}
	if id == 0xFFFFFFFF {
		return 0, &errs.ErrIdOverflow{}
	}
	data, err := object.Pack(o)
	if err != nil {
		return 0, err
	}
	key := idKey(id)
	err = s.objDB.Update(func(tx *bolt.Tx) error { return tx.Bucket(s.objBucket).Put(key, data) })
	if err != nil {
		return 0, &errs.ErrIo{Op: "store: add", Err: err}
	}
	if err := s.idx.Put(id, o.Type, o.BBox()); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BoltStore) getRaw(id uint32) ([]byte, error) {
	key := idKey(id)
	var data []byte
	err := s.objDB.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.objBucket).Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, &errs.ErrIo{Op: "store: get", Err: err}
	}
	return data, nil
}

func (s *BoltStore) Put(id uint32, o object.Object) error {
	if o.IsEmpty() {
		return &errs.ErrEmptyObject{}
	}
	oldData, err := s.getRaw(id)
	if err != nil {
		return err
	}
	if oldData == nil {
		return &errs.ErrNotFound{Id: id}
	}
	old, err := object.Unpack(oldData)
	if err != nil {
		return err
	}
	data, err := object.Pack(o)
	if err != nil {
		return err
	}
	key := idKey(id)
	err = s.objDB.Update(func(tx *bolt.Tx) error { return tx.Bucket(s.objBucket).Put(key, data) })
	if err != nil {
		return &errs.ErrIo{Op: "store: put", Err: err}
	}
	if old.Type != o.Type || !old.BBox().Equal(o.BBox()) {
		if err := s.idx.Del(id, old.Type, old.BBox()); err != nil {
			return err
		}
		if err := s.idx.Put(id, o.Type, o.BBox()); err != nil {
			return err
		}
	}
	return nil
}

func (s *BoltStore) Get(id uint32) (object.Object, error) {
	data, err := s.getRaw(id)
	if err != nil {
		return object.Object{}, err
	}
	if data == nil {
		return object.Object{}, &errs.ErrNotFound{Id: id}
	}
	return object.Unpack(data)
}

func (s *BoltStore) Del(id uint32) error {
	o, err := s.Get(id)
	if err != nil {
		return err
	}
	key := idKey(id)
	err = s.objDB.Update(func(tx *bolt.Tx) error { return tx.Bucket(s.objBucket).Delete(key) })
	if err != nil {
		return &errs.ErrIo{Op: "store: del", Err: err}
	}
	return s.idx.Del(id, o.Type, o.BBox())
}

func (s *BoltStore) Find(typ uint32, r geom.Rect) (map[uint32]bool, error) {
	return s.idx.Get(typ, r)
}

func (s *BoltStore) Types() ([]uint32, error) { return s.idx.Types() }
func (s *BoltStore) BBox() (geom.Rect, error) { return s.idx.BBox() }

func (s *BoltStore) IterStart() error {
	if s.iterTx != nil {
		s.iterTx.Rollback()
		s.iterTx = nil
	}
	tx, err := s.objDB.Begin(false)
	if err != nil {
		return &errs.ErrIo{Op: "store: iter_start", Err: err}
	}
	s.iterTx = tx
	s.iterCursor = tx.Bucket(s.objBucket).Cursor()
	s.iterKey, s.iterVal = s.iterCursor.First()
	return nil
}

func (s *BoltStore) IterEnd() bool { return s.iterKey == nil }

func (s *BoltStore) IterNext() (uint32, object.Object, error) {
	if s.IterEnd() {
		return 0, object.Object{}, &errs.ErrInvariant{Reason: "iterator exhausted"}
	}
	id := binary.BigEndian.Uint32(s.iterKey)
	o, err := object.Unpack(s.iterVal)
	if err != nil {
		return 0, object.Object{}, err
	}
	s.iterKey, s.iterVal = s.iterCursor.Next()
	if s.iterKey == nil {
		s.iterTx.Rollback()
		s.iterTx = nil
		s.iterCursor = nil
	}
	return id, o, nil
}

func (s *BoltStore) Close() error {
	if s.iterTx != nil {
		s.iterTx.Rollback()
		s.iterTx = nil
	}
	if err := s.idx.Close(); err != nil {
		return err
	}
	if err := s.ghDB.Close(); err != nil {
		return &errs.ErrIo{Op: "store: close", Err: err}
	}
	if err := s.objDB.Close(); err != nil {
		return &errs.ErrIo{Op: "store: close", Err: err}
	}
	return nil
}
