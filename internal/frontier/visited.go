package frontier

import (
	"hash/fnv"
	"sync"
)

// Visited is the seen-set: every URL ever accepted during one run.
// It only grows.
type Visited struct {
	set map[uint64]struct{}
	mu  sync.Mutex
}

func NewVisited() *Visited {
	return &Visited{
		set: make(map[uint64]struct{}),
	}
}

func hash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Add inserts u and reports whether it was absent. Check and insert happen
// under one lock so two callers can never both get true for the same URL.
func (v *Visited) Add(u string) bool {
	key := hash(u)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.set[key]; ok {
		return false
	}
	v.set[key] = struct{}{}
	return true
}

func (v *Visited) Has(u string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.set[hash(u)]
	return ok
}

// Size is the number of distinct URLs accepted so far.
func (v *Visited) Size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.set)
}
