package store

import (
	"sort"

	"github.com/slazav/vmap2/internal/errs"
	"github.com/slazav/vmap2/internal/geom"
	"github.com/slazav/vmap2/internal/index"
	"github.com/slazav/vmap2/internal/object"
)

// MemStore is the in-memory Store, grounded on VMap2mem: a std::map keyed
// by id paired with a GeoHashStorage. ids is kept sorted; since Add always
// assigns max(ids)+1, appending it keeps the slice sorted without a
// separate re-sort on every mutation.
type MemStore struct {
	objects map[uint32]object.Object
	ids     []uint32
	idx     index.Index
	iterPos int
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *MemStore {
	return &MemStore{
		objects: map[uint32]object.Object{},
		idx:     index.NewMemory(),
	}
}

func (s *MemStore) Add(o object.Object) (uint32, error) {
	if o.IsEmpty() {
		return 0, &errs.ErrEmptyObject{}
	}
	var id uint32
	if n := len(s.ids); n > 0 {
		id = s.ids[n-1] + 1
	}
	if id == 0xFFFFFFFF {
		return 0, &errs.ErrIdOverflow{}
	}
	if err := s.idx.Put(id, o.Type, o.BBox()); err != nil {
		return 0, err
	}
	s.objects[id] = o
	s.ids = append(s.ids, id)
	return id, nil
}

func (s *MemStore) Put(id uint32, o object.Object) error {
	if o.IsEmpty() {
		return &errs.ErrEmptyObject{}
	}
	old, ok := s.objects[id]
	if !ok {
		return &errs.ErrNotFound{Id: id}
	}
	if old.Type != o.Type || !old.BBox().Equal(o.BBox()) {
		if err := s.idx.Del(id, old.Type, old.BBox()); err != nil {
			return err
		}
		if err := s.idx.Put(id, o.Type, o.BBox()); err != nil {
			return err
		}
	}
	s.objects[id] = o
	return nil
}

func (s *MemStore) Get(id uint32) (object.Object, error) {
	o, ok := s.objects[id]
	if !ok {
		return object.Object{}, &errs.ErrNotFound{Id: id}
	}
	return o, nil
}

func (s *MemStore) Del(id uint32) error {
	o, ok := s.objects[id]
	if !ok {
		return &errs.ErrNotFound{Id: id}
	}
	if err := s.idx.Del(id, o.Type, o.BBox()); err != nil {
		return err
	}
	delete(s.objects, id)
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	if i < len(s.ids) && s.ids[i] == id {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
	}
	return nil
}

func (s *MemStore) Find(typ uint32, r geom.Rect) (map[uint32]bool, error) {
	return s.idx.Get(typ, r)
}

func (s *MemStore) Types() ([]uint32, error) { return s.idx.Types() }
func (s *MemStore) BBox() (geom.Rect, error) { return s.idx.BBox() }

func (s *MemStore) IterStart() error {
	s.iterPos = 0
	return nil
}

func (s *MemStore) IterEnd() bool { return s.iterPos >= len(s.ids) }

func (s *MemStore) IterNext() (uint32, object.Object, error) {
	if s.IterEnd() {
		return 0, object.Object{}, &errs.ErrInvariant{Reason: "iterator exhausted"}
	}
	id := s.ids[s.iterPos]
	s.iterPos++
	return id, s.objects[id], nil
}

func (s *MemStore) Close() error { return nil }
