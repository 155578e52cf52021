package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/internal/scoring"
	"github.com/hivemindlab/swarm/pkg/models"
)

// MinPatternsPerDistillation is the smallest category group that yields
// a distillation. Categories below this are skipped entirely.
const MinPatternsPerDistillation = 2

// categoryRule maps keywords to one task category. The table is
// evaluated in order; the first rule with a matching keyword wins and
// "general" is the fallback.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"engineering", []string{"code", "implement", "api", "bug", "refactor", "build"}},
	{"research", []string{"research", "analyze", "investigate", "study", "survey"}},
	{"data", []string{"data", "metrics", "statistics", "dataset", "benchmark"}},
	{"infrastructure", []string{"deploy", "docker", "kubernetes", "infra", "pipeline"}},
	{"verification", []string{"test", "verify", "validate", "audit"}},
	{"market", []string{"market", "trend", "competitor", "industry", "forecast"}},
}

// InferCategory classifies a task by keyword matching over the fixed
// rule table, falling back to "general".
func InferCategory(task string) string {
	lowered := strings.ToLower(task)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return "general"
}

// Distill groups successful patterns by inferred category and writes one
// distillation per category holding at least MinPatternsPerDistillation
// patterns. Re-running replaces each category's previous distillation.
// It returns the distillations created.
func (b *Bank) Distill() ([]*models.MemoryDistillation, error) {
	patterns, err := b.ListSuccessfulPatterns()
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]*models.Pattern)
	for _, p := range patterns {
		cat := InferCategory(p.Task)
		groups[cat] = append(groups[cat], p)
	}

	categories := make([]string, 0, len(groups))
	for cat := range groups {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*models.MemoryDistillation
	for _, cat := range categories {
		group := groups[cat]
		if len(group) < MinPatternsPerDistillation {
			continue
		}
		d := synthesizeDistillation(cat, group)
		if err := b.upsertDistillation(d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// synthesizeDistillation condenses a category group into one record.
// Confidence reflects consistency: tight reward spreads score high.
func synthesizeDistillation(category string, group []*models.Pattern) *models.MemoryDistillation {
	ids := make([]string, 0, len(group))
	var rewardSum float64
	successes := 0
	var best *models.Pattern
	var insights, failures []string

	for _, p := range group {
		ids = append(ids, p.ID)
		rewardSum += p.Reward
		if p.Success {
			successes++
		}
		if best == nil || p.Reward > best.Reward {
			best = p
		}
		if p.OutputSummary != "" {
			insights = append(insights, fmt.Sprintf("[%s] %s", p.Role, firstSentence(p.OutputSummary)))
		}
		if p.Critique != "" && p.Critique != scoring.NoIssuesCritique {
			failures = append(failures, p.Critique)
		}
	}

	mean := rewardSum / float64(len(group))
	var variance float64
	for _, p := range group {
		variance += (p.Reward - mean) * (p.Reward - mean)
	}
	variance /= float64(len(group))
	confidence := mean * (1 - math.Sqrt(variance))
	if confidence < 0 {
		confidence = 0
	}

	return &models.MemoryDistillation{
		ID:               uuid.New().String(),
		SourceCategory:   category,
		SourcePatternIDs: ids,
		KeyInsights:      strings.Join(dedupeStrings(insights, 5), " | "),
		SuccessFactors:   fmt.Sprintf("Top pattern (%s) reached reward %.2f on %q", best.Role, best.Reward, truncate(best.Task, 80)),
		FailurePatterns:  strings.Join(dedupeStrings(failures, 3), " | "),
		BestPractices:    fmt.Sprintf("Favor the %s approach for %s tasks; mean reward %.2f over %d patterns", best.Role, category, mean, len(group)),
		ConfidenceScore:  confidence,
		SuccessRate:      float64(successes) / float64(len(group)),
		CreatedAt:        time.Now(),
	}
}

// upsertDistillation replaces the category's distillation while keeping
// usage counters from a previous record. Caller must hold b.mu.
func (b *Bank) upsertDistillation(d *models.MemoryDistillation) error {
	idsJSON, err := json.Marshal(d.SourcePatternIDs)
	if err != nil {
		return fmt.Errorf("marshal source pattern ids: %w", err)
	}

	_, err = b.db.Exec(`
		INSERT INTO memory_distillations (id, source_category, source_pattern_ids,
			key_insights, success_factors, failure_patterns, best_practices,
			confidence_score, success_rate, usage_count, last_used_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)
		ON CONFLICT(source_category) DO UPDATE SET
			source_pattern_ids = excluded.source_pattern_ids,
			key_insights = excluded.key_insights,
			success_factors = excluded.success_factors,
			failure_patterns = excluded.failure_patterns,
			best_practices = excluded.best_practices,
			confidence_score = excluded.confidence_score,
			success_rate = excluded.success_rate
	`, d.ID, d.SourceCategory, string(idsJSON), d.KeyInsights, d.SuccessFactors,
		d.FailurePatterns, d.BestPractices, d.ConfidenceScore, d.SuccessRate,
		formatTime(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert distillation: %w", err)
	}
	return nil
}

// ListDistillations returns all distillations, newest first.
func (b *Bank) ListDistillations() ([]*models.MemoryDistillation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.db.Query(`
		SELECT id, source_category, source_pattern_ids, key_insights, success_factors,
			   failure_patterns, best_practices, confidence_score, success_rate,
			   usage_count, last_used_at, created_at
		FROM memory_distillations
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list distillations: %w", err)
	}
	defer rows.Close()

	var out []*models.MemoryDistillation
	for rows.Next() {
		var d models.MemoryDistillation
		var idsJSON, createdAt string
		var lastUsed sql.NullString
		err := rows.Scan(&d.ID, &d.SourceCategory, &idsJSON, &d.KeyInsights,
			&d.SuccessFactors, &d.FailurePatterns, &d.BestPractices,
			&d.ConfidenceScore, &d.SuccessRate, &d.UsageCount, &lastUsed, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan distillation: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &d.SourcePatternIDs); err != nil {
			return nil, fmt.Errorf("unmarshal source pattern ids: %w", err)
		}
		if lastUsed.Valid {
			t, err := parseTime(lastUsed.String)
			if err != nil {
				return nil, fmt.Errorf("parse distillation last_used_at: %w", err)
			}
			d.LastUsedAt = &t
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse distillation created_at: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// StrategyFor returns the distillation covering the task's inferred
// category and bumps its usage counter. It returns nil when the
// category has no distillation yet.
func (b *Bank) StrategyFor(task string) (*models.MemoryDistillation, error) {
	category := InferCategory(task)

	b.mu.RLock()
	row := b.db.QueryRow(`
		SELECT id, source_category, source_pattern_ids, key_insights, success_factors,
			   failure_patterns, best_practices, confidence_score, success_rate,
			   usage_count, last_used_at, created_at
		FROM memory_distillations
		WHERE source_category = ?
	`, category)

	var d models.MemoryDistillation
	var idsJSON, createdAt string
	var lastUsed sql.NullString
	err := row.Scan(&d.ID, &d.SourceCategory, &idsJSON, &d.KeyInsights,
		&d.SuccessFactors, &d.FailurePatterns, &d.BestPractices,
		&d.ConfidenceScore, &d.SuccessRate, &d.UsageCount, &lastUsed, &createdAt)
	b.mu.RUnlock()

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get distillation for %q: %w", category, err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &d.SourcePatternIDs); err != nil {
		return nil, fmt.Errorf("unmarshal source pattern ids: %w", err)
	}
	if lastUsed.Valid {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, fmt.Errorf("parse distillation last_used_at: %w", err)
		}
		d.LastUsedAt = &t
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse distillation created_at: %w", err)
	}

	if err := b.TouchDistillation(d.ID); err != nil {
		return nil, err
	}
	d.UsageCount++
	return &d, nil
}

// TouchDistillation bumps a distillation's usage count and timestamp.
// This is the only permitted mutation of a stored distillation.
func (b *Bank) TouchDistillation(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.db.Exec(`
		UPDATE memory_distillations
		SET usage_count = usage_count + 1, last_used_at = ?
		WHERE id = ?
	`, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch distillation: %w", err)
	}
	return nil
}

func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?\n"); i > 0 {
		return s[:i+1]
	}
	return truncate(s, 120)
}

func dedupeStrings(in []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
