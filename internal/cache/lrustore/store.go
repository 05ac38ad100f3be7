// Package lrustore is the in-process cache tier.
package lrustore

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	numShards = 16
	// below this a single exact LRU is kept
	minShardedSize = 1024
)

// Store keeps the most recently used results. Codec results never go
// stale, so ttl is ignored and eviction is by size only. Large stores are
// split into shards by key hash so concurrent requests rarely share a lock.
type Store struct {
	shards []*lru.Cache[string, []byte]
}

func New(size int) (*Store, error) {
	if size <= 0 {
		size = 4096
	}
	n := 1
	if size >= minShardedSize {
		n = numShards
	}
	per := (size + n - 1) / n

	s := &Store{shards: make([]*lru.Cache[string, []byte], n)}
	for i := range s.shards {
		c, err := lru.New[string, []byte](per)
		if err != nil {
			return nil, fmt.Errorf("lru: %w", err)
		}
		s.shards[i] = c
	}
	return s, nil
}

func (s *Store) pick(key string) *lru.Cache[string, []byte] {
	h := xxhash.Sum64String(key)
	return s.shards[h%uint64(len(s.shards))]
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.pick(key).Get(key)
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.pick(key).Add(key, val)
	return nil
}

func (s *Store) Len() int {
	n := 0
	for _, c := range s.shards {
		n += c.Len()
	}
	return n
}
