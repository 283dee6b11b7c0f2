package show

import (
	"sync"

	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
)

// preparedResponse is a response generated ahead of its slot: text plus
// synthesized audio, keyed by queue index.
type preparedResponse struct {
	Index int
	Host  domain.HostID
	Text  string
	Clip  *collab.Clip
}

// prefetchCache holds at most a handful of pre-generated responses. Entries
// are removed on first use; the queue is short and bounded per round, so no
// eviction policy is needed.
type prefetchCache struct {
	mu      sync.Mutex
	entries map[int]*preparedResponse
}

func newPrefetchCache() *prefetchCache {
	return &prefetchCache{entries: make(map[int]*preparedResponse)}
}

func (c *prefetchCache) put(resp *preparedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[resp.Index] = resp
}

// take returns the entry for index+host and deletes it. A host mismatch is
// treated as a miss; the slot's parity is authoritative.
func (c *prefetchCache) take(index int, host domain.HostID) *preparedResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[index]
	if !ok {
		return nil
	}
	delete(c.entries, index)
	if resp.Host != host {
		return nil
	}
	return resp
}

func (c *prefetchCache) has(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[index]
	return ok
}
