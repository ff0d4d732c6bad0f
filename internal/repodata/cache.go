package repodata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bsdata-go/internal/datafile"
	"bsdata-go/internal/index"
)

// DefaultCacheTTL is how long a built repository stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// Snapshot is the built, compressed file set of one repository.
type Snapshot struct {
	Repository string
	Source     string
	Index      *index.DataIndex
	Files      map[string][]byte
	Checksums  map[string]string
	Failures   []index.FileFailure
	BuiltAt    time.Time
	RunID      int64
}

// File returns a compressed file by name. Uncompressed and legacy names are
// mapped to their compressed form.
func (s *Snapshot) File(name string) ([]byte, bool) {
	if data, ok := s.Files[name]; ok {
		return data, true
	}
	compressed, err := datafile.CompressedName(name)
	if err != nil {
		return nil, false
	}
	data, ok := s.Files[compressed]
	return data, ok
}

// BuildFunc produces a fresh snapshot for a cache miss.
type BuildFunc func() (*Snapshot, error)

// Cache holds the latest snapshot per repository. Concurrent requests for a
// repository that is not cached share a single build.
type Cache struct {
	ttl   time.Duration
	clock Clock

	group singleflight.Group

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewCache returns a Cache whose entries expire ttl after they were built.
// A ttl of zero or less keeps entries until they are invalidated.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	return &Cache{
		ttl:       ttl,
		clock:     clock,
		snapshots: make(map[string]*Snapshot),
	}
}

// Get returns the cached snapshot for key, running build if there is no fresh
// one. Only one build per key runs at a time; other callers wait for it. A
// caller whose ctx ends stops waiting, but the build itself carries on and
// its result is still cached.
func (c *Cache) Get(ctx context.Context, key string, build BuildFunc) (*Snapshot, error) {
	if s, ok := c.fresh(key); ok {
		return s, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		if s, ok := c.fresh(key); ok {
			return s, nil
		}
		s, err := build()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snapshots[key] = s
		c.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Peek returns the cached snapshot for key even if it has expired.
func (c *Cache) Peek(key string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[key]
	return s, ok
}

// Invalidate drops the cached snapshot for key. A build already in flight
// is not cancelled.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.snapshots, key)
	c.mu.Unlock()
}

// Keys returns the repositories currently cached.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.snapshots))
	for k := range c.snapshots {
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache) fresh(key string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(s.BuiltAt) >= c.ttl {
		return nil, false
	}
	return s, true
}
