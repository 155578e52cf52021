package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/internal/scoring"
	"github.com/hivemindlab/swarm/pkg/models"
)

// Association classification thresholds over the blended similarity.
const (
	// SimilarThreshold marks the "similar" association type.
	SimilarThreshold = 0.7
	// DivergentContentThreshold is the raw text similarity below which
	// two successful patterns count as complementary.
	DivergentContentThreshold = 0.4
)

// Associate computes the blended similarity for every unordered pattern
// pair and persists one association per pair. Recomputation overwrites
// the existing edge rather than duplicating it. It returns the number
// of associations written.
func (b *Bank) Associate() (int, error) {
	patterns, err := b.ListAllPatterns()
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	written := 0
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			assoc := buildAssociation(patterns[i], patterns[j])
			if err := b.upsertAssociation(assoc); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

// buildAssociation classifies one unordered pattern pair. The pair is
// normalized so PatternIDA < PatternIDB.
func buildAssociation(a, p *models.Pattern) *models.PatternAssociation {
	if p.ID < a.ID {
		a, p = p, a
	}

	textA := a.Task + "\n" + a.OutputSummary
	textB := p.Task + "\n" + p.OutputSummary
	contentSim := scoring.Jaccard(scoring.Tokenize(textA), scoring.Tokenize(textB))
	blended := scoring.Blended(scoring.BlendInputs{
		TextA: textA, TextB: textB,
		SuccessA: a.Success, SuccessB: p.Success,
		RewardA: a.Reward, RewardB: p.Reward,
	})
	score := scoring.Clamp01(blended / (1 + scoring.SuccessBoostWeight + scoring.RewardAgreementWeight))

	var assocType models.AssociationType
	switch {
	case score >= SimilarThreshold:
		assocType = models.AssociationSimilar
	case a.Success && p.Success && contentSim < DivergentContentThreshold:
		assocType = models.AssociationComplementary
	case a.Success != p.Success:
		assocType = models.AssociationContrasting
	default:
		assocType = models.AssociationSequential
	}

	// Contrasting pairs teach the most; similar pairs the least new.
	learningValue := score
	switch assocType {
	case models.AssociationContrasting:
		learningValue = scoring.Clamp01(1 - score + 0.2)
	case models.AssociationComplementary:
		learningValue = scoring.Clamp01(score + 0.3)
	}

	return &models.PatternAssociation{
		ID:              uuid.New().String(),
		PatternIDA:      a.ID,
		PatternIDB:      p.ID,
		SimilarityScore: score,
		AssociationType: assocType,
		LearningValue:   learningValue,
		CreatedAt:       time.Now(),
	}
}

// upsertAssociation writes the pair's edge, overwriting scores and type
// on conflict while keeping the original id and usage count. Caller
// must hold b.mu.
func (b *Bank) upsertAssociation(a *models.PatternAssociation) error {
	_, err := b.db.Exec(`
		INSERT INTO pattern_associations (id, pattern_id_a, pattern_id_b,
			similarity_score, association_type, learning_value, usage_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(pattern_id_a, pattern_id_b) DO UPDATE SET
			similarity_score = excluded.similarity_score,
			association_type = excluded.association_type,
			learning_value = excluded.learning_value
	`, a.ID, a.PatternIDA, a.PatternIDB, a.SimilarityScore, string(a.AssociationType),
		a.LearningValue, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert association: %w", err)
	}
	return nil
}

// ListAssociations returns all associations, strongest first.
func (b *Bank) ListAssociations() ([]*models.PatternAssociation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.db.Query(`
		SELECT id, pattern_id_a, pattern_id_b, similarity_score, association_type,
			   learning_value, usage_count, created_at
		FROM pattern_associations
		ORDER BY similarity_score DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list associations: %w", err)
	}
	defer rows.Close()

	var out []*models.PatternAssociation
	for rows.Next() {
		var a models.PatternAssociation
		var assocType, createdAt string
		err := rows.Scan(&a.ID, &a.PatternIDA, &a.PatternIDB, &a.SimilarityScore,
			&assocType, &a.LearningValue, &a.UsageCount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		a.AssociationType = models.AssociationType(assocType)
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse association created_at: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
