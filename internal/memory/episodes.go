package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/pkg/models"
)

// EpisodeBaselineScore is the fixed initial score for every episode.
const EpisodeBaselineScore = 0.5

// Learning-rate steps applied depending on whether the episode improved
// on the baseline.
const (
	LearningRateImproving = 0.1
	LearningRateStagnant  = 0.05
)

// createEpisode records the next learning episode for the logical
// pattern. The read-max-then-insert runs inside one transaction while
// the caller holds the bank's write lock, so episode numbers are
// assigned serially per pattern. Caller must hold b.mu.
func (b *Bank) createEpisode(patternID string, p *models.Pattern, depth int, durationSeconds float64) (*models.LearningEpisode, error) {
	now := time.Now()

	explorationRate := durationSeconds / 3600
	if explorationRate > 1 {
		explorationRate = 1
	}
	if explorationRate < 0 {
		explorationRate = 0
	}

	verdict := models.VerdictFailure
	if p.Success {
		verdict = models.VerdictSuccess
	}

	improvement := p.Confidence - EpisodeBaselineScore
	learningRate := LearningRateStagnant
	if improvement > 0 {
		learningRate = LearningRateImproving
	}

	ep := &models.LearningEpisode{
		ID:               uuid.New().String(),
		PatternID:        patternID,
		TaskCategory:     InferCategory(p.Task),
		DifficultyLevel:  depth,
		InitialScore:     EpisodeBaselineScore,
		FinalScore:       p.Confidence,
		ImprovementRate:  improvement,
		ExplorationRate:  explorationRate,
		ExploitationRate: p.Confidence,
		LearningRate:     learningRate,
		Verdict:          verdict,
		StartedAt:        now.Add(-time.Duration(durationSeconds * float64(time.Second))),
		CompletedAt:      now,
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin episode tx: %w", err)
	}

	var maxNumber int
	row := tx.QueryRow("SELECT COALESCE(MAX(episode_number), 0) FROM learning_episodes WHERE pattern_id = ?", patternID)
	if err := row.Scan(&maxNumber); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("read max episode number: %w", err)
	}
	ep.EpisodeNumber = maxNumber + 1

	_, err = tx.Exec(`
		INSERT INTO learning_episodes (id, pattern_id, episode_number, task_category,
			difficulty_level, initial_score, final_score, improvement_rate,
			exploration_rate, exploitation_rate, learning_rate, verdict, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ep.ID, ep.PatternID, ep.EpisodeNumber, ep.TaskCategory, ep.DifficultyLevel,
		ep.InitialScore, ep.FinalScore, ep.ImprovementRate, ep.ExplorationRate,
		ep.ExploitationRate, ep.LearningRate, string(ep.Verdict),
		formatTime(ep.StartedAt), formatTime(ep.CompletedAt))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert episode: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit episode: %w", err)
	}
	return ep, nil
}

// ListEpisodes returns all episodes for a pattern in episode order.
func (b *Bank) ListEpisodes(patternID string) ([]*models.LearningEpisode, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, err := b.db.Query(`
		SELECT id, pattern_id, episode_number, task_category, difficulty_level,
			   initial_score, final_score, improvement_rate, exploration_rate,
			   exploitation_rate, learning_rate, verdict, started_at, completed_at
		FROM learning_episodes
		WHERE pattern_id = ?
		ORDER BY episode_number
	`, patternID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []*models.LearningEpisode
	for rows.Next() {
		var ep models.LearningEpisode
		var verdict, startedAt, completedAt string
		err := rows.Scan(&ep.ID, &ep.PatternID, &ep.EpisodeNumber, &ep.TaskCategory,
			&ep.DifficultyLevel, &ep.InitialScore, &ep.FinalScore, &ep.ImprovementRate,
			&ep.ExplorationRate, &ep.ExploitationRate, &ep.LearningRate, &verdict,
			&startedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.Verdict = models.EpisodeVerdict(verdict)
		if ep.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse episode started_at: %w", err)
		}
		if ep.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("parse episode completed_at: %w", err)
		}
		out = append(out, &ep)
	}
	return out, rows.Err()
}
