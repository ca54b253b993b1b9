// Package dedup maintains a bounded cache mapping file content digests to
// the path of the first extracted file with that content, so an archive
// extractor can hardlink later occurrences instead of rewriting identical
// data to disk.
package dedup

import (
	"hash/maphash"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
)

// Digest identifies file content by its 64-bit xxhash sum. It is not
// cryptographically secure; it is only meant to short-circuit exact
// duplicate writes within a single extraction run.
type Digest uint64

// Cache is a bounded content-addressed path cache, safe for concurrent use
// by the extractor's per-entry worker goroutines.
type Cache struct {
	mu sync.Mutex
	t  *tinylfu.T[Digest, string]
}

// New returns a Cache admitting at most capacity entries.
func New(capacity int) *Cache {
	seed := maphash.MakeSeed()
	hasher := func(d Digest) uint64 {
		return maphash.Comparable(seed, d)
	}
	return &Cache{t: tinylfu.New[Digest, string](capacity, capacity*10, hasher)}
}

// Lookup reports the path previously Stored under digest, if any.
func (c *Cache) Lookup(digest Digest) (path string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.Get(digest)
}

// Store records that path holds content with the given digest. Only the
// first path for a given digest need be stored; callers should check
// Lookup before writing a new copy of the data.
func (c *Cache) Store(digest Digest, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t.Add(digest, path)
}

// Sum returns the content digest of b.
func Sum(b []byte) Digest {
	return Digest(xxhash.Sum64(b))
}
