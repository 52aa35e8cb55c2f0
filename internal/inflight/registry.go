// Package inflight tracks requests that are currently being executed so that
// concurrent identical requests can share one underlying call.
package inflight

import (
	"net/http"
	"sync"

	"github.com/hoangsonww/FastFetch-API-Fetch-Enhancer/internal/signature"
)

// DefaultShardCount is the number of shards used by NewRegistry.
const DefaultShardCount = 32

// Registry maps a request signature to its in-flight Call. At most one call
// exists per signature at any instant. It is safe for concurrent use.
type Registry struct {
	shards    []*shard
	shardMask uint64
}

type shard struct {
	mu    sync.Mutex
	calls map[string]*Call
}

// NewRegistry returns an empty registry with DefaultShardCount shards.
func NewRegistry() *Registry {
	return NewRegistryWithShards(DefaultShardCount)
}

// NewRegistryWithShards returns an empty registry. shardCount is rounded up
// to a power of two; values below one select a single shard.
func NewRegistryWithShards(shardCount int) *Registry {
	n := nextPowerOf2(shardCount)
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{calls: make(map[string]*Call)}
	}
	return &Registry{
		shards:    shards,
		shardMask: uint64(n - 1),
	}
}

func (r *Registry) shardFor(sig string) *shard {
	return r.shards[signature.Hash64(sig)&r.shardMask]
}

// Acquire returns the call registered under sig, attaching the caller to it
// (owner=false), or registers and returns a new call (owner=true). The check
// and the registration happen under one lock.
func (r *Registry) Acquire(sig string) (*Call, bool) {
	s := r.shardFor(sig)
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.calls[sig]; ok {
		c.waiters.Add(1)
		return c, false
	}

	c := newCall()
	s.calls[sig] = c
	return c, true
}

// Lookup returns the call currently registered under sig, if any.
func (r *Registry) Lookup(sig string) (*Call, bool) {
	s := r.shardFor(sig)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.calls[sig]
	return c, ok
}

// Release removes sig only if it still maps to c, so a late release never
// deletes a newer call registered under the same signature. It reports
// whether an entry was removed.
func (r *Registry) Release(sig string, c *Call) bool {
	s := r.shardFor(sig)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls[sig] != c {
		return false
	}
	delete(s.calls, sig)
	return true
}

// Settle releases c from the registry and then completes it, so any caller
// that observes the outcome and calls Acquire again starts a fresh call.
func (r *Registry) Settle(sig string, c *Call, resp *http.Response, err error) {
	r.Release(sig, c)
	c.Complete(resp, err)
}

// Len returns the number of in-flight calls.
func (r *Registry) Len() int {
	total := 0
	for _, s := range r.shards {
		s.mu.Lock()
		total += len(s.calls)
		s.mu.Unlock()
	}
	return total
}

func nextPowerOf2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
