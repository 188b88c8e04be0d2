package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxEntries is the memory store capacity used when none is configured.
const DefaultMaxEntries = 256

// Record is a cached value together with its lifecycle timestamps.
// ExpiresAt is the zero time for records that never expire.
type Record[V any] struct {
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record's freshness window has passed as of now.
// Records without an expiry never expire.
func (r Record[V]) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// memoryEntry is the LRU list payload: the key back-reference plus the record.
type memoryEntry[K comparable, V any] struct {
	key K
	rec Record[V]
}

// MemoryStore is a bounded in-memory cache with strict LRU eviction and
// per-entry expiration.
//
// Contract:
// - Concurrency: safe for concurrent use; operations never interleave
//   internal mutation (one mutex per store).
// - Eviction: least-recently-used first, ties broken by insertion order.
// - Expiry: Get lazily purges expired entries; Never entries are exempt.
type MemoryStore[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[K]*list.Element
}

// NewMemoryStore creates a store holding at most capacity entries.
// Capacity 1 is valid (every write evicts the previous entry).
// A capacity below 1 falls back to DefaultMaxEntries.
func NewMemoryStore[K comparable, V any](capacity int) *MemoryStore[K, V] {
	if capacity < 1 {
		capacity = DefaultMaxEntries
	}
	return &MemoryStore[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get retrieves the live value for key, promoting it to most-recently-used.
// Expired entries across the whole store are purged first, so a record found
// expired is removed as a side effect and reported as absent.
func (s *MemoryStore[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpired(time.Now())

	elem, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	s.order.MoveToFront(elem)
	return elem.Value.(*memoryEntry[K, V]).rec.Value, true
}

// Entry returns the record for key without side effects: no purge, no
// promotion, and expired records are returned as-is. Callers that need to
// tell "missing" from "expired" (stale fallback) read through Entry.
func (s *MemoryStore[K, V]) Entry(key K) (Record[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return Record[V]{}, false
	}
	return elem.Value.(*memoryEntry[K, V]).rec, true
}

// Set inserts or replaces the record for key, marks it most-recently-used,
// then evicts least-recently-used entries until within capacity.
func (s *MemoryStore[K, V]) Set(key K, value V, exp Expiration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec := Record[V]{Value: value, CreatedAt: now}
	if at, ok := exp.ExpireTime(now); ok {
		rec.ExpiresAt = at
	}

	if elem, ok := s.items[key]; ok {
		elem.Value.(*memoryEntry[K, V]).rec = rec
		s.order.MoveToFront(elem)
	} else {
		s.items[key] = s.order.PushFront(&memoryEntry[K, V]{key: key, rec: rec})
	}

	for s.order.Len() > s.capacity {
		s.evictOldest()
	}
}

// Remove deletes the record for key and its LRU bookkeeping. Idempotent.
func (s *MemoryStore[K, V]) Remove(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.order.Remove(elem)
		delete(s.items, key)
	}
}

// Clear removes every record. Idempotent.
func (s *MemoryStore[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Init()
	s.items = make(map[K]*list.Element)
}

// Contains reports whether a live (non-expired) record exists for key,
// without promoting or purging.
func (s *MemoryStore[K, V]) Contains(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		return false
	}
	return !elem.Value.(*memoryEntry[K, V]).rec.Expired(time.Now())
}

// Len returns the number of stored records, including expired records not
// yet reclaimed by the lazy purge.
func (s *MemoryStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// IsEmpty reports whether the store holds no records.
func (s *MemoryStore[K, V]) IsEmpty() bool {
	return s.Len() == 0
}

// purgeExpired removes every expired entry. Caller holds the lock.
func (s *MemoryStore[K, V]) purgeExpired(now time.Time) {
	for elem := s.order.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*memoryEntry[K, V])
		if entry.rec.Expired(now) {
			s.order.Remove(elem)
			delete(s.items, entry.key)
		}
		elem = next
	}
}

// evictOldest removes the least-recently-used entry. Caller holds the lock.
func (s *MemoryStore[K, V]) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*memoryEntry[K, V])
	s.order.Remove(back)
	delete(s.items, entry.key)
}
