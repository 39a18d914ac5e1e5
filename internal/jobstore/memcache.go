package jobstore

import (
	"context"
	"sync"

	"github.com/sealium/transcription-service/internal/jobstate"
)

// MemoryCache is a process-local Cache implementation. In production this
// slot is filled by a shared cache (e.g. Redis); MemoryCache is the
// in-process stand-in used for single-process deployments and tests,
// mirroring the teacher's split between a Repository port and its
// in-memory implementation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*jobstate.State
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*jobstate.State)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*jobstate.State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

func (c *MemoryCache) Set(_ context.Context, key string, state *jobstate.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = state.Clone()
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

var _ Cache = (*MemoryCache)(nil)
