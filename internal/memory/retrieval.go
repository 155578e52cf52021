package memory

import (
	"fmt"
	"log"
	"sort"

	"github.com/hivemindlab/swarm/internal/scoring"
	"github.com/hivemindlab/swarm/pkg/models"
)

// blendNormalizer scales a blended similarity back into [0,1]. The
// blend's maximum is 1 (full token overlap) plus both outcome terms.
const blendNormalizer = 1 + scoring.SuccessBoostWeight + scoring.RewardAgreementWeight

// SimilarResult pairs a retrieved pattern with its similarity score.
type SimilarResult struct {
	Pattern *models.Pattern
	Score   float64
}

// SearchSimilar retrieves up to k patterns most similar to the query
// text. The query is compared as an ideal observation (successful,
// reward 1.0) so successful high-reward patterns outrank failures at
// equal text overlap. Candidates come from the graph index when it has
// been built over a large enough corpus, otherwise from a linear scan;
// both paths rank identically: score descending, then newest first.
func (b *Bank) SearchSimilar(query string, k int) ([]*SimilarResult, error) {
	if k <= 0 {
		return nil, nil
	}

	b.mu.RLock()
	embs, err := b.listEmbeddings("pattern")
	b.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(embs) == 0 {
		return nil, nil
	}

	candidates := embs
	if b.index.Ready() {
		byID := make(map[string]*models.VectorEmbedding, len(embs))
		for _, e := range embs {
			byID[e.ID] = e
		}
		width := k * 4
		if width < defaultSearchDepth {
			width = defaultSearchDepth
		}
		if ids := b.index.Query(EmbedText(query), width); ids != nil {
			candidates = candidates[:0]
			for _, id := range ids {
				if e, ok := byID[id]; ok {
					candidates = append(candidates, e)
				}
			}
		}
	}

	results := make([]*SimilarResult, 0, len(candidates))
	for _, emb := range candidates {
		p, err := b.GetPattern(emb.SourceID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		blended := scoring.Blended(scoring.BlendInputs{
			TextA: query, TextB: emb.ContentText,
			SuccessA: true, SuccessB: p.Success,
			RewardA: 1.0, RewardB: p.Reward,
		})
		results = append(results, &SimilarResult{
			Pattern: p,
			Score:   scoring.Clamp01(blended / blendNormalizer),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Pattern.CreatedAt.After(results[j].Pattern.CreatedAt)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SimilarPatterns returns up to k patterns similar to the task text.
// It satisfies the decomposer's memory consultation interface.
func (b *Bank) SimilarPatterns(task string, k int) ([]*models.Pattern, error) {
	results, err := b.SearchSimilar(task, k)
	if err != nil {
		return nil, err
	}
	patterns := make([]*models.Pattern, len(results))
	for i, r := range results {
		patterns[i] = r.Pattern
	}
	return patterns, nil
}

// RebuildIndex reconstructs the similarity graph over all pattern
// embeddings. Until a rebuild covers a large enough corpus, queries use
// the linear scan.
func (b *Bank) RebuildIndex() (int, error) {
	b.mu.RLock()
	embs, err := b.listEmbeddings("pattern")
	b.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	entries := make([]*indexEntry, len(embs))
	for i, e := range embs {
		entries[i] = &indexEntry{id: e.ID, vector: e.Vector, createdAt: e.CreatedAt}
	}
	b.index.Build(entries)
	return len(entries), nil
}

// SessionReport summarizes one learning session.
type SessionReport struct {
	Skipped       bool
	Distillations int
	Associations  int
	IndexedCount  int
}

// RunLearningSession distills successful patterns, recomputes pattern
// associations, and rebuilds the similarity index. Unless forced, the
// session only runs once at least minSuccesses successful patterns have
// accumulated since the previous session; the counter resets after a
// completed session.
func (b *Bank) RunLearningSession(minSuccesses int, force bool) (*SessionReport, error) {
	if !force {
		n, err := b.SuccessesSinceSession()
		if err != nil {
			return nil, err
		}
		if n < minSuccesses {
			return &SessionReport{Skipped: true}, nil
		}
	}

	distilled, err := b.Distill()
	if err != nil {
		return nil, fmt.Errorf("distill: %w", err)
	}
	associations, err := b.Associate()
	if err != nil {
		return nil, fmt.Errorf("associate: %w", err)
	}
	indexed, err := b.RebuildIndex()
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	b.mu.Lock()
	err = b.resetSuccessesSinceSession()
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reset session counter: %w", err)
	}

	log.Printf("[memory] learning session complete: %d distillations, %d associations, %d indexed",
		len(distilled), associations, indexed)
	return &SessionReport{
		Distillations: len(distilled),
		Associations:  associations,
		IndexedCount:  indexed,
	}, nil
}

// BankStats holds row counts for the stats command.
type BankStats struct {
	Patterns           int
	SuccessfulPatterns int
	Episodes           int
	Embeddings         int
	Distillations      int
	Associations       int
	IndexReady         bool
}

// Stats reports record counts across all bank tables.
func (b *Bank) Stats() (*BankStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := &BankStats{IndexReady: b.index.Ready()}
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM patterns", &stats.Patterns},
		{"SELECT COUNT(*) FROM patterns WHERE success = 1", &stats.SuccessfulPatterns},
		{"SELECT COUNT(*) FROM learning_episodes", &stats.Episodes},
		{"SELECT COUNT(*) FROM vector_embeddings", &stats.Embeddings},
		{"SELECT COUNT(*) FROM memory_distillations", &stats.Distillations},
		{"SELECT COUNT(*) FROM pattern_associations", &stats.Associations},
	}
	for _, c := range counts {
		if err := b.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("count rows: %w", err)
		}
	}
	return stats, nil
}
