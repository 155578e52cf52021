package memory

import (
	"hash/fnv"
	"math/bits"
	"sort"
	"sync"
	"time"
)

// Graph index tuning. fanOut bounds the neighbors kept per node per
// level; searchDepth bounds the candidate frontier during queries.
const (
	defaultFanOut      = 8
	defaultSearchDepth = 32
	maxGraphLevels     = 8

	// minCorpusForIndex is the corpus size below which queries use the
	// linear scan even when the graph has been built.
	minCorpusForIndex = 10

	// indexBuildBatch is how many nodes are inserted per build batch.
	indexBuildBatch = 64
)

// indexNode is one embedding in the layered similarity graph.
type indexNode struct {
	id        string
	vector    []float32
	createdAt time.Time
	// neighbors[l] lists neighbor ids at level l; the node participates
	// in levels 0..len(neighbors)-1.
	neighbors [][]string
}

// graphIndex is a layered proximity graph over embeddings. Upper levels
// form a sparse overlay for coarse navigation; level 0 holds every node.
// Queries greedily descend levels, then expand a bounded frontier at
// level 0, giving logarithmic expected cost on well-spread corpora.
// The index is advisory: retrieval falls back to a linear scan whenever
// the graph is absent or the corpus is small, and both paths share the
// same final ranking contract.
type graphIndex struct {
	mu          sync.RWMutex
	fanOut      int
	searchDepth int
	nodes       map[string]*indexNode
	entryPoint  string
	topLevel    int
	built       bool
}

func newGraphIndex(fanOut, searchDepth int) *graphIndex {
	return &graphIndex{
		fanOut:      fanOut,
		searchDepth: searchDepth,
		nodes:       make(map[string]*indexNode),
	}
}

// nodeLevel derives a deterministic level from the node id so rebuilds
// produce identical graphs.
func nodeLevel(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	level := bits.TrailingZeros32(h.Sum32() | (1 << maxGraphLevels))
	if level >= maxGraphLevels {
		level = maxGraphLevels - 1
	}
	return level
}

// Build replaces the graph with one constructed over the entries,
// inserting in batches.
func (g *graphIndex) Build(entries []*indexEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[string]*indexNode, len(entries))
	g.entryPoint = ""
	g.topLevel = 0

	for start := 0; start < len(entries); start += indexBuildBatch {
		end := start + indexBuildBatch
		if end > len(entries) {
			end = len(entries)
		}
		for _, e := range entries[start:end] {
			g.insertLocked(e)
		}
	}
	g.built = true
}

// indexEntry is the build input for one embedding.
type indexEntry struct {
	id        string
	vector    []float32
	createdAt time.Time
}

func (g *graphIndex) insertLocked(e *indexEntry) {
	level := nodeLevel(e.id)
	node := &indexNode{
		id:        e.id,
		vector:    e.vector,
		createdAt: e.createdAt,
		neighbors: make([][]string, level+1),
	}

	// Register before wiring: back-link ranking resolves the new node's
	// vector through g.nodes. The node stays unreachable to searches
	// until the first link lands.
	g.nodes[e.id] = node

	if g.entryPoint == "" {
		g.entryPoint = e.id
		g.topLevel = level
		return
	}

	// Greedy descent from the top of the graph to the node's level,
	// then connect to the nearest fanOut nodes on each shared level.
	current := g.entryPoint
	for l := g.topLevel; l > level; l-- {
		current = g.greedyStepLocked(current, e.vector, l)
	}
	for l := min(level, g.topLevel); l >= 0; l-- {
		nearest := g.searchLevelLocked(current, e.vector, l, g.fanOut)
		node.neighbors[l] = append(node.neighbors[l], nearest...)
		for _, nid := range nearest {
			nb := g.nodes[nid]
			if l < len(nb.neighbors) {
				nb.neighbors[l] = appendBounded(nb.neighbors[l], e.id, g.fanOut, func(a, b string) bool {
					return cosine(g.nodes[a].vector, nb.vector) > cosine(g.nodes[b].vector, nb.vector)
				})
			}
		}
		if len(nearest) > 0 {
			current = nearest[0]
		}
	}

	if level > g.topLevel {
		g.topLevel = level
		g.entryPoint = e.id
	}
}

// greedyStepLocked moves to the closest neighbor of current at the
// level, repeating until no neighbor improves.
func (g *graphIndex) greedyStepLocked(current string, target []float32, level int) string {
	for {
		node := g.nodes[current]
		best := current
		bestSim := cosine(node.vector, target)
		if level < len(node.neighbors) {
			for _, nid := range node.neighbors[level] {
				if sim := cosine(g.nodes[nid].vector, target); sim > bestSim {
					best, bestSim = nid, sim
				}
			}
		}
		if best == current {
			return current
		}
		current = best
	}
}

// searchLevelLocked expands a bounded frontier around start at the level
// and returns up to limit node ids ordered by similarity to the target.
func (g *graphIndex) searchLevelLocked(start string, target []float32, level, limit int) []string {
	visited := map[string]bool{start: true}
	frontier := []string{start}
	var collected []string

	for len(frontier) > 0 && len(visited) < g.searchDepth {
		next := frontier[0]
		frontier = frontier[1:]
		collected = append(collected, next)

		node := g.nodes[next]
		if level >= len(node.neighbors) {
			continue
		}
		for _, nid := range node.neighbors[level] {
			if !visited[nid] {
				visited[nid] = true
				frontier = append(frontier, nid)
			}
		}
	}
	collected = append(collected, frontier...)

	sort.SliceStable(collected, func(i, j int) bool {
		return cosine(g.nodes[collected[i]].vector, target) > cosine(g.nodes[collected[j]].vector, target)
	})
	if len(collected) > limit {
		collected = collected[:limit]
	}
	return collected
}

// Query returns up to limit candidate node ids nearest the target
// vector, or nil when the graph is unusable and the caller must fall
// back to a linear scan.
func (g *graphIndex) Query(target []float32, limit int) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.built || len(g.nodes) < minCorpusForIndex || g.entryPoint == "" {
		return nil
	}

	current := g.entryPoint
	for l := g.topLevel; l > 0; l-- {
		current = g.greedyStepLocked(current, target, l)
	}
	return g.searchLevelLocked(current, target, 0, limit)
}

// Ready reports whether queries will be served by the graph for a
// corpus of the given size.
func (g *graphIndex) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.built && len(g.nodes) >= minCorpusForIndex
}

// Size returns the number of indexed nodes.
func (g *graphIndex) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// appendBounded inserts id into the neighbor list, keeping it sorted by
// the less function and bounded to limit entries.
func appendBounded(list []string, id string, limit int, less func(a, b string) bool) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	list = append(list, id)
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
