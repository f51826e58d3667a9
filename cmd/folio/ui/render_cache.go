package ui

import (
	"hash/fnv"
	"math"
	"sync"
)

// RenderCache holds rendered strings keyed by a hash of their inputs. When full, the
// least recently used entry is dropped.
type RenderCache struct {
	mu      sync.Mutex
	entries map[uint64]*cacheEntry
	maxSize int
	clock   uint64
}

type cacheEntry struct {
	content  string
	lastUsed uint64
	hits     int
}

// NewRenderCache creates a cache holding at most maxSize entries.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &RenderCache{entries: make(map[uint64]*cacheEntry), maxSize: maxSize}
}

// ComputeKey hashes the inputs with FNV-1a. Only strings, ints, float64 and bools
// contribute; other types are ignored.
func ComputeKey(inputs ...any) uint64 {
	h := fnv.New64a()
	var b [8]byte
	putUint := func(u uint64) {
		for i := range b {
			b[i] = byte(u >> (8 * i))
		}
		h.Write(b[:])
	}

	for _, input := range inputs {
		switch v := input.(type) {
		case string:
			putUint(uint64(len(v)))
			h.Write([]byte(v))
		case int:
			putUint(uint64(v))
		case float64:
			putUint(math.Float64bits(v))
		case bool:
			if v {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return h.Sum64()
}

// Get returns the cached content for key.
func (rc *RenderCache) Get(key uint64) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	e, ok := rc.entries[key]
	if !ok {
		return "", false
	}
	rc.clock++
	e.lastUsed = rc.clock
	e.hits++
	return e.content, true
}

// Set stores content under key.
func (rc *RenderCache) Set(key uint64, content string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.clock++
	if e, ok := rc.entries[key]; ok {
		e.content, e.lastUsed = content, rc.clock
		return
	}
	if len(rc.entries) >= rc.maxSize {
		rc.evictLocked()
	}
	rc.entries[key] = &cacheEntry{content: content, lastUsed: rc.clock}
}

func (rc *RenderCache) evictLocked() {
	var oldest uint64
	first := true
	var victim uint64
	for k, e := range rc.entries {
		if first || e.lastUsed < oldest {
			oldest, victim, first = e.lastUsed, k, false
		}
	}
	if !first {
		delete(rc.entries, victim)
	}
}

// GetOrCompute returns the cached content for key, rendering and storing it if missing.
// A compute that reports failure is not cached.
func (rc *RenderCache) GetOrCompute(key uint64, compute func() (string, bool)) string {
	if content, ok := rc.Get(key); ok {
		return content
	}
	content, ok := compute()
	if ok {
		rc.Set(key, content)
	}
	return content
}

// Len returns the number of cached entries.
func (rc *RenderCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// Clear empties the cache.
func (rc *RenderCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[uint64]*cacheEntry)
}
