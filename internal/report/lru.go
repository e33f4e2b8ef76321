package report

import (
	"fmt"
	"sync"
)

// LRUStore is an in-memory LRU cache of runs in front of a backing Store.
// Saves are written through; loads promote the run to most recently used.
type LRUStore struct {
	mu   sync.Mutex
	cap  int
	back Store

	// Doubly-linked list for LRU ordering (most recent at head).
	head, tail *lruEntry
	items      map[string]*lruEntry
}

type lruEntry struct {
	key    string
	result *RunResult
	prev   *lruEntry
	next   *lruEntry
}

// NewLRUStore creates an LRU cache with the given capacity that delegates
// to back on cache misses. Capacity must be >= 1.
func NewLRUStore(cap int, back Store) *LRUStore {
	if cap < 1 {
		cap = 1
	}
	return &LRUStore{
		cap:   cap,
		back:  back,
		items: make(map[string]*lruEntry, cap),
	}
}

// Save writes the result to the backing store, then caches it. A run that
// could not be persisted is not cached either, so Load never returns
// something the backing store does not have.
func (s *LRUStore) Save(result *RunResult) error {
	if result.ID == "" {
		return fmt.Errorf("saving run: empty id")
	}
	if err := s.back.Save(result); err != nil {
		return err
	}

	s.mu.Lock()
	s.put(result.ID, result)
	s.mu.Unlock()
	return nil
}

// Load checks the LRU cache first. On miss, loads from the backing store
// and promotes the result into the cache.
func (s *LRUStore) Load(runID string) (*RunResult, error) {
	s.mu.Lock()
	if e, ok := s.items[runID]; ok {
		s.moveToFront(e)
		r := e.result
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	// Miss: fall back to the backing store.
	result, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.put(runID, result)
	s.mu.Unlock()

	return result, nil
}

// Recent returns up to n cached runs, most recently used first.
func (s *LRUStore) Recent(n int) []*RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*RunResult
	for e := s.head; e != nil && len(out) < n; e = e.next {
		out = append(out, e.result)
	}
	return out
}

// List returns up to limit runs, newest first. It reads through to the
// backing store when that store can list; otherwise it returns the cached
// runs.
func (s *LRUStore) List(limit int) ([]*RunResult, error) {
	if l, ok := s.back.(interface {
		List(limit int) ([]*RunResult, error)
	}); ok {
		return l.List(limit)
	}
	if limit <= 0 {
		return s.Recent(s.cap), nil
	}
	return s.Recent(limit), nil
}

// Len returns the number of cached runs.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// put inserts or refreshes key. Callers hold s.mu.
func (s *LRUStore) put(key string, result *RunResult) {
	if e, ok := s.items[key]; ok {
		e.result = result
		s.moveToFront(e)
		return
	}
	e := &lruEntry{key: key, result: result}
	s.items[key] = e
	s.pushFront(e)
	if len(s.items) > s.cap {
		s.evict()
	}
}

func (s *LRUStore) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *LRUStore) moveToFront(e *lruEntry) {
	if s.head == e {
		return
	}
	s.remove(e)
	s.pushFront(e)
}

func (s *LRUStore) remove(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (s *LRUStore) evict() {
	if s.tail == nil {
		return
	}
	e := s.tail
	s.remove(e)
	delete(s.items, e.key)
}
