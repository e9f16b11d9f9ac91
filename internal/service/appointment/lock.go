package appointment

import (
	"bytes"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// keyedMutex hands out one mutex per key and forgets it once nobody
// holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*refMutex)}
}

// Lock blocks until every key is held and returns the release func.
// Keys are deduplicated and taken in byte order so two callers locking
// the same pair cannot deadlock.
func (k *keyedMutex) Lock(keys ...uuid.UUID) func() {
	keys = uniqueSorted(keys)

	held := make([]*refMutex, 0, len(keys))
	for _, key := range keys {
		held = append(held, k.acquire(key))
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			k.release(keys[i], held[i])
		}
	}
}

func (k *keyedMutex) acquire(key uuid.UUID) *refMutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return m
}

func (k *keyedMutex) release(key uuid.UUID, m *refMutex) {
	m.Unlock()
	k.mu.Lock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

func uniqueSorted(keys []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		dup := false
		for _, seen := range out {
			if seen == key {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
