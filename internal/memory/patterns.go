package memory

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/internal/scoring"
	"github.com/hivemindlab/swarm/pkg/models"
)

// maxSummaryLen bounds the stored input/output summaries.
const maxSummaryLen = 500

// metaSuccessesSinceSession is the bank_meta key counting successful
// patterns recorded since the last learning session.
const metaSuccessesSinceSession = "successes_since_session"

// RecordExecution scores an execution result, stores the resulting
// pattern with its embedding, and records a learning episode. When the
// same content was seen before, the episode is attributed to the
// original pattern so its episode history keeps growing.
func (b *Bank) RecordExecution(jobID, task string, res models.ExecutionResult, depth int) (*models.Pattern, *models.LearningEpisode, error) {
	in := scoring.RewardInputs{
		Success:         res.Success,
		GroundingScore:  res.GroundingScore,
		DurationSeconds: res.DurationSeconds,
		OutputLength:    len(res.Output),
	}

	reward := scoring.Reward(in)
	pattern := &models.Pattern{
		ID:            uuid.New().String(),
		JobID:         jobID,
		Task:          task,
		Role:          res.Role,
		InputSummary:  truncate(task, maxSummaryLen),
		OutputSummary: truncate(res.Output, maxSummaryLen),
		Reward:        reward,
		Success:       res.Success,
		Confidence:    scoring.Confidence(reward, res.GroundingScore),
		Critique:      scoring.Critique(in),
		LatencyMs:     int64(res.DurationSeconds * 1000),
		TokensUsed:    res.TokensEstimate,
		CreatedAt:     time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Identical content maps to an existing logical pattern: the new
	// observation becomes that pattern's next episode.
	episodePatternID := pattern.ID
	content := pattern.Task + "\n" + pattern.OutputSummary
	if existing, err := b.embeddingByHash(ContentHash(truncate(content, maxEmbeddedContentLen))); err != nil {
		return nil, nil, err
	} else if existing != nil && existing.SourceType == "pattern" {
		episodePatternID = existing.SourceID
	}

	if err := b.insertPattern(pattern); err != nil {
		return nil, nil, err
	}
	if _, err := b.storeEmbedding(pattern.ID, "pattern", content); err != nil {
		return nil, nil, err
	}

	episode, err := b.createEpisode(episodePatternID, pattern, depth, res.DurationSeconds)
	if err != nil {
		return nil, nil, err
	}

	if pattern.Success {
		if err := b.bumpMetaCounter(metaSuccessesSinceSession, 1); err != nil {
			return nil, nil, err
		}
	}

	return pattern, episode, nil
}

func (b *Bank) insertPattern(p *models.Pattern) error {
	_, err := b.db.Exec(`
		INSERT INTO patterns (id, job_id, task, role, input_summary, output_summary,
			reward, success, confidence, critique, latency_ms, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.JobID, p.Task, string(p.Role), p.InputSummary, p.OutputSummary,
		p.Reward, boolToInt(p.Success), p.Confidence, p.Critique, p.LatencyMs,
		p.TokensUsed, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert pattern: %w", err)
	}
	return nil
}

// GetPattern retrieves a pattern by ID, or nil when absent.
func (b *Bank) GetPattern(id string) (*models.Pattern, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	row := b.db.QueryRow(patternSelect+" WHERE id = ?", id)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListPatterns returns the most recent patterns up to limit.
func (b *Bank) ListPatterns(limit int) ([]*models.Pattern, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queryPatterns(patternSelect+" ORDER BY created_at DESC LIMIT ?", limit)
}

// ListSuccessfulPatterns returns all successful patterns, oldest first.
func (b *Bank) ListSuccessfulPatterns() ([]*models.Pattern, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queryPatterns(patternSelect + " WHERE success = 1 ORDER BY created_at")
}

// ListAllPatterns returns every stored pattern, oldest first.
func (b *Bank) ListAllPatterns() ([]*models.Pattern, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queryPatterns(patternSelect + " ORDER BY created_at")
}

// SearchPatternsKeyword performs a full-text search over pattern tasks
// and summaries.
func (b *Bank) SearchPatternsKeyword(query string, limit int) ([]*models.Pattern, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.queryPatterns(`
		SELECT p.id, p.job_id, p.task, p.role, p.input_summary, p.output_summary,
			   p.reward, p.success, p.confidence, p.critique, p.latency_ms, p.tokens_used, p.created_at
		FROM patterns p
		JOIN patterns_fts fts ON p.rowid = fts.rowid
		WHERE patterns_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
}

func (b *Bank) queryPatterns(query string, args ...interface{}) ([]*models.Pattern, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []*models.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const patternSelect = `
	SELECT id, job_id, task, role, input_summary, output_summary,
		   reward, success, confidence, critique, latency_ms, tokens_used, created_at
	FROM patterns`

func scanPattern(row rowScanner) (*models.Pattern, error) {
	var p models.Pattern
	var role, createdAt string
	var success int
	err := row.Scan(&p.ID, &p.JobID, &p.Task, &role, &p.InputSummary, &p.OutputSummary,
		&p.Reward, &success, &p.Confidence, &p.Critique, &p.LatencyMs, &p.TokensUsed, &createdAt)
	if err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	p.Success = success != 0
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse pattern created_at: %w", err)
	}
	return &p, nil
}

// SuccessesSinceSession reports how many successful patterns have been
// recorded since the last learning session.
func (b *Bank) SuccessesSinceSession() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metaCounter(metaSuccessesSinceSession)
}

// resetSuccessesSinceSession zeroes the counter. Caller must hold the
// write lock.
func (b *Bank) resetSuccessesSinceSession() error {
	_, err := b.db.Exec(`
		INSERT INTO bank_meta (key, value) VALUES (?, '0')
		ON CONFLICT(key) DO UPDATE SET value = '0'
	`, metaSuccessesSinceSession)
	return err
}

func (b *Bank) metaCounter(key string) (int, error) {
	var value string
	err := b.db.QueryRow("SELECT value FROM bank_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read meta %s: %w", key, err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse meta %s: %w", key, err)
	}
	return n, nil
}

func (b *Bank) bumpMetaCounter(key string, delta int) error {
	current, err := b.metaCounter(key)
	if err != nil {
		return err
	}
	_, err = b.db.Exec(`
		INSERT INTO bank_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, strconv.Itoa(current+delta))
	return err
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
