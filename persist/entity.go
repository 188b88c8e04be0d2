package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonwraymond/apicache/cache"
)

// Cacheable is implemented by any type eligible for persistent caching.
//
// Contract:
// - CacheCollection returns a stable, non-empty collection name and must be
//   callable on the zero value (implement with a value receiver).
// - CachePrimaryKey returns a deterministic, non-empty identity string.
//   Types whose natural identity is only a partial key (a resource unique
//   only with respect to a second dimension) are stored through PutKeyed
//   with an explicit composite identifier instead.
type Cacheable interface {
	CacheCollection() string
	CachePrimaryKey() string
}

// Put serializes the entity to JSON and upserts it under its own identity.
// Serialization failure surfaces as ErrSerialize; the write does not happen.
func Put(ctx context.Context, s *Store, entity Cacheable, exp cache.Expiration) error {
	return PutKeyed(ctx, s, entity, entity.CachePrimaryKey(), exp)
}

// PutKeyed is Put with an explicit primary key, for entities whose identity
// is composite (e.g. "A_1" joining two identifying fields).
func PutKeyed(ctx context.Context, s *Store, entity Cacheable, pk string, exp cache.Expiration) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return s.PutRecord(ctx, entity.CacheCollection(), pk, data, exp)
}

// Get retrieves the entity stored under T's collection and the given primary
// key. An expired record is deleted as a side effect and reported as
// ErrExpired. A record that cannot be decoded surfaces as ErrDeserialize,
// never as a miss.
func Get[T Cacheable](ctx context.Context, s *Store, pk string) (T, error) {
	var out T

	data, err := s.GetRecord(ctx, out.CacheCollection(), pk)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %s/%s: %v", ErrDeserialize, out.CacheCollection(), pk, err)
	}
	return out, nil
}

// Delete removes the entity stored under T's collection and the given
// primary key. Idempotent.
func Delete[T Cacheable](ctx context.Context, s *Store, pk string) error {
	var zero T
	return s.Remove(ctx, zero.CacheCollection(), pk)
}
