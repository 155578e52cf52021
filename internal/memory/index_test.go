package memory

import (
	"fmt"
	"testing"
	"time"
)

func TestGraphBuildWiresBackLinks(t *testing.T) {
	g := newGraphIndex(defaultFanOut, defaultSearchDepth)

	entries := make([]*indexEntry, len(retrievalTasks))
	for i, task := range retrievalTasks {
		entries[i] = &indexEntry{
			id:        fmt.Sprintf("n-%d", i),
			vector:    EmbedText(task),
			createdAt: time.Now(),
		}
	}
	g.Build(entries)

	if !g.Ready() {
		t.Fatal("Ready() = false after building the full corpus")
	}
	if g.Size() != len(entries) {
		t.Fatalf("Size() = %d, want %d", g.Size(), len(entries))
	}

	ids := g.Query(EmbedText(retrievalTasks[4]), 5)
	if len(ids) == 0 {
		t.Fatal("Query() returned no candidates")
	}
	found := false
	for _, id := range ids {
		if id == "n-4" {
			found = true
		}
	}
	if !found {
		t.Errorf("Query() candidates %v missing the exact-match node n-4", ids)
	}

	for id, node := range g.nodes {
		for l, nbs := range node.neighbors {
			if len(nbs) > g.fanOut {
				t.Errorf("node %s level %d has %d neighbors, fan-out is %d", id, l, len(nbs), g.fanOut)
			}
		}
	}
}

func TestGraphBuildDeterministic(t *testing.T) {
	build := func() *graphIndex {
		g := newGraphIndex(defaultFanOut, defaultSearchDepth)
		entries := make([]*indexEntry, len(retrievalTasks))
		for i, task := range retrievalTasks {
			entries[i] = &indexEntry{id: fmt.Sprintf("n-%d", i), vector: EmbedText(task)}
		}
		g.Build(entries)
		return g
	}

	a, b := build(), build()
	query := EmbedText(retrievalTasks[7])
	got := a.Query(query, 3)
	want := b.Query(query, 3)
	if len(got) != len(want) {
		t.Fatalf("rebuild changed candidate count: %d vs %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %s, rebuild gave %s", i, got[i], want[i])
		}
	}
}
