package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/slazav/vmap2/internal/geohash"
	"github.com/slazav/vmap2/internal/geom"
)

// memoryBackend emulates the upstream ImplMem's std::multimap<string,id>:
// a single ordered sequence of (key,id) records, kept sorted so every
// operation is a binary search plus a linear scan of the matching run.
type memoryBackend struct {
	mu   sync.RWMutex
	recs []memRecord // sorted by (key, id)
}

type memRecord struct {
	key string
	id  uint32
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{}
}

func less(a memRecord, key string, id uint32) bool {
	if a.key != key {
		return a.key < key
	}
	return a.id < id
}

func (m *memoryBackend) find(key string, id uint32) (int, bool) {
	i := sort.Search(len(m.recs), func(i int) bool { return !less(m.recs[i], key, id) })
	return i, i < len(m.recs) && m.recs[i].key == key && m.recs[i].id == id
}

func (m *memoryBackend) putOne(id, typ uint32, hash string) error {
	key := string(joinKey(typ, hash))
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(key, id)
	if ok {
		return nil // DB_NODUPDATA: (key,id) already present, no-op
	}
	m.recs = append(m.recs, memRecord{})
	copy(m.recs[i+1:], m.recs[i:])
	m.recs[i] = memRecord{key: key, id: id}
	return nil
}

func (m *memoryBackend) delOne(id, typ uint32, hash string) error {
	key := string(joinKey(typ, hash))
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(key, id)
	if !ok {
		return nil
	}
	m.recs = append(m.recs[:i], m.recs[i+1:]...)
	return nil
}

func (m *memoryBackend) getHash(typ uint32, prefix string, exact bool) (map[uint32]bool, error) {
	key0 := string(joinKey(typ, prefix))
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := map[uint32]bool{}
	i := sort.Search(len(m.recs), func(i int) bool { return m.recs[i].key >= key0 })
	for ; i < len(m.recs); i++ {
		k := m.recs[i].key
		if exact {
			if k != key0 {
				break
			}
		} else if len(k) < len(key0) || k[:len(key0)] != key0 {
			break
		}
		result[m.recs[i].id] = true
	}
	return result, nil
}

func (m *memoryBackend) types() ([]uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[uint32]bool{}
	for _, r := range m.recs {
		seen[binary.BigEndian.Uint32([]byte(r.key[:4]))] = true
	}
	out := make([]uint32, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *memoryBackend) bbox() (geom.Rect, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := geom.Rect{Empty: true}
	for _, rec := range m.recs {
		r.ExpandRect(geohash.Decode(rec.key[4:]))
	}
	return r, nil
}

func (m *memoryBackend) dump(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.recs {
		typ := binary.BigEndian.Uint32([]byte(rec.key[:4]))
		if _, err := fmt.Fprintf(w, "%d\t%d\t%s\n", rec.id, typ, rec.key[4:]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryBackend) close() error { return nil }
