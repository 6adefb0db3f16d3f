package graph

import "sync"

// Plan is the compiled, ready-to-run form of a Graph: its topological order
// precomputed once so the runner doesn't repeat that O(n+e) work on every
// run of a graph it has already seen.
type Plan struct {
	Graph *Graph
	Order []string
}

// Compile produces a Plan from a validated Graph.
func Compile(g *Graph) *Plan {
	return &Plan{Graph: g, Order: g.TopologicalOrder()}
}

type planKey struct {
	definitionType string
	graphHash      uint64
}

type planEntry struct {
	key    planKey
	plan   *Plan
	atomic uint64 // monotonically increasing access stamp for eviction
}

// PlanCache caches compiled Plans keyed by (definitionType, graph hash), so
// that repeatedly building structurally identical graphs - e.g. once per
// incoming request in a long-lived service - reuses the same Plan instead of
// recompiling it (invariant 1). definitionType lets two different planner
// implementations (or plan schema versions) share one cache without
// colliding on hash alone.
//
// Eviction is LRU: up to the cache's capacity entries are kept
// (DefaultPlanCacheCapacity unless NewPlanCache is given a positive value),
// and when a new entry would exceed that, the least recently accessed entry
// is found by a linear scan and dropped. The scan is acceptable at the
// capacities this cache is sized for (tens to low hundreds of distinct graph
// shapes).
type PlanCache struct {
	mu       sync.Mutex
	capacity int
	clock    uint64
	entries  map[planKey]*planEntry
}

// DefaultPlanCacheCapacity is used by NewPlanCache when capacity <= 0.
const DefaultPlanCacheCapacity = 100

// NewPlanCache creates a cache bounded to capacity entries.
func NewPlanCache(capacity int) *PlanCache {
	if capacity <= 0 {
		capacity = DefaultPlanCacheCapacity
	}
	return &PlanCache{
		capacity: capacity,
		entries:  make(map[planKey]*planEntry),
	}
}

// GetOrCompile returns a cached Plan for (definitionType, g.Hash()) if
// present, recording the access; otherwise it compiles, stores and returns a
// new one, evicting the least recently accessed entry first if the cache is
// full.
func (c *PlanCache) GetOrCompile(definitionType string, g *Graph) *Plan {
	key := planKey{definitionType: definitionType, graphHash: g.Hash()}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	if e, ok := c.entries[key]; ok {
		e.atomic = c.clock
		return e.plan
	}

	if len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	plan := Compile(g)
	c.entries[key] = &planEntry{key: key, plan: plan, atomic: c.clock}
	return plan
}

func (c *PlanCache) evictOldestLocked() {
	var oldestKey planKey
	var oldestStamp uint64
	first := true
	for k, e := range c.entries {
		if first || e.atomic < oldestStamp {
			oldestKey = k
			oldestStamp = e.atomic
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
