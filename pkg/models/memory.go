package models

import "time"

// Pattern is a scored record of one executed worker, forming the unit of
// memory in the reasoning bank. Patterns are immutable once stored.
type Pattern struct {
	// ID is the unique identifier for this pattern.
	ID string `json:"id"`
	// JobID is the job whose execution produced this pattern.
	JobID string `json:"job_id"`
	// Task is the task text the worker was given.
	Task string `json:"task"`
	// Role is the worker role that produced the output.
	Role Role `json:"role"`
	// InputSummary is a truncated summary of the worker prompt.
	InputSummary string `json:"input_summary"`
	// OutputSummary is a truncated summary of the worker output.
	OutputSummary string `json:"output_summary"`
	// Reward is the computed reward in [0,1].
	Reward float64 `json:"reward"`
	// Success records whether the execution succeeded.
	Success bool `json:"success"`
	// Confidence is the normalized confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// Critique is the rule-based critique text.
	Critique string `json:"critique"`
	// LatencyMs is the execution latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`
	// TokensUsed is the token estimate for the execution.
	TokensUsed int `json:"tokens_used"`
	// CreatedAt is when the pattern was stored.
	CreatedAt time.Time `json:"created_at"`
}

// EpisodeVerdict is the outcome label of a learning episode.
type EpisodeVerdict string

const (
	// VerdictSuccess marks an episode derived from a successful execution.
	VerdictSuccess EpisodeVerdict = "success"
	// VerdictFailure marks an episode derived from a failed execution.
	VerdictFailure EpisodeVerdict = "failure"
)

// LearningEpisode tracks score evolution for one pattern over repeated
// observations. Episode numbers are sequential per pattern, starting at 1.
type LearningEpisode struct {
	// ID is the unique identifier for this episode.
	ID string `json:"id"`
	// PatternID is the pattern this episode belongs to.
	PatternID string `json:"pattern_id"`
	// EpisodeNumber is the sequential number within the pattern's history.
	EpisodeNumber int `json:"episode_number"`
	// TaskCategory is the inferred category of the originating task.
	TaskCategory string `json:"task_category"`
	// DifficultyLevel is the research depth the worker ran at.
	DifficultyLevel int `json:"difficulty_level"`
	// InitialScore is the fixed baseline score.
	InitialScore float64 `json:"initial_score"`
	// FinalScore is the pattern's confidence after execution.
	FinalScore float64 `json:"final_score"`
	// ImprovementRate is FinalScore minus InitialScore.
	ImprovementRate float64 `json:"improvement_rate"`
	// ExplorationRate reflects how long the worker explored, in [0,1].
	ExplorationRate float64 `json:"exploration_rate"`
	// ExploitationRate mirrors the final score.
	ExploitationRate float64 `json:"exploitation_rate"`
	// LearningRate is the applied learning step size.
	LearningRate float64 `json:"learning_rate"`
	// Verdict labels the episode outcome.
	Verdict EpisodeVerdict `json:"verdict"`
	// StartedAt is when the underlying execution started.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the episode was recorded.
	CompletedAt time.Time `json:"completed_at"`
}

// EmbeddingDimensions is the fixed dimensionality of stored vectors.
const EmbeddingDimensions = 256

// VectorEmbedding is an append-only embedding record for similarity search.
type VectorEmbedding struct {
	// ID is the unique identifier for this embedding.
	ID string `json:"id"`
	// SourceID is the id of the record the embedding was derived from.
	SourceID string `json:"source_id"`
	// SourceType names the source record kind (e.g. "pattern").
	SourceType string `json:"source_type"`
	// ContentText is the truncated source text.
	ContentText string `json:"content_text"`
	// ContentHash deduplicates identical content.
	ContentHash string `json:"content_hash"`
	// Vector is the embedding itself, EmbeddingDimensions wide.
	Vector []float32 `json:"vector"`
	// CreatedAt is when the embedding was stored.
	CreatedAt time.Time `json:"created_at"`
}

// MemoryDistillation is a compressed summary synthesized from two or more
// same-category successful patterns.
type MemoryDistillation struct {
	// ID is the unique identifier for this distillation.
	ID string `json:"id"`
	// SourceCategory is the task category the patterns were grouped by.
	SourceCategory string `json:"source_category"`
	// SourcePatternIDs lists the patterns the distillation was built from.
	SourcePatternIDs []string `json:"source_pattern_ids"`
	// KeyInsights summarizes what the group of patterns shows.
	KeyInsights string `json:"key_insights"`
	// SuccessFactors lists traits shared by the strongest patterns.
	SuccessFactors string `json:"success_factors"`
	// FailurePatterns lists recurring weaknesses, if any.
	FailurePatterns string `json:"failure_patterns"`
	// BestPractices condenses the insights into guidance.
	BestPractices string `json:"best_practices"`
	// ConfidenceScore reflects consistency across the group, in [0,1].
	ConfidenceScore float64 `json:"confidence_score"`
	// SuccessRate is the share of successful source patterns.
	SuccessRate float64 `json:"success_rate"`
	// UsageCount counts how often the distillation has been surfaced.
	UsageCount int `json:"usage_count"`
	// LastUsedAt is when the distillation was last surfaced.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	// CreatedAt is when the distillation was created.
	CreatedAt time.Time `json:"created_at"`
}

// AssociationType classifies the relationship between two patterns.
type AssociationType string

const (
	// AssociationSimilar marks highly similar patterns.
	AssociationSimilar AssociationType = "similar"
	// AssociationComplementary marks successful patterns with divergent content.
	AssociationComplementary AssociationType = "complementary"
	// AssociationContrasting marks a success paired with a failure.
	AssociationContrasting AssociationType = "contrasting"
	// AssociationSequential is the default relationship.
	AssociationSequential AssociationType = "sequential"
)

// Valid returns true if the association type is a known value.
func (a AssociationType) Valid() bool {
	switch a {
	case AssociationSimilar, AssociationComplementary, AssociationContrasting, AssociationSequential:
		return true
	default:
		return false
	}
}

// PatternAssociation is a weighted similarity edge between two patterns.
// The pair is unordered and stored with PatternIDA < PatternIDB.
type PatternAssociation struct {
	// ID is the unique identifier for this association.
	ID string `json:"id"`
	// PatternIDA is the lexically smaller pattern id of the pair.
	PatternIDA string `json:"pattern_id_a"`
	// PatternIDB is the lexically larger pattern id of the pair.
	PatternIDB string `json:"pattern_id_b"`
	// SimilarityScore is the blended similarity in [0,1].
	SimilarityScore float64 `json:"similarity_score"`
	// AssociationType classifies the relationship.
	AssociationType AssociationType `json:"association_type"`
	// LearningValue estimates how instructive the pair is.
	LearningValue float64 `json:"learning_value"`
	// UsageCount counts how often the association has been surfaced.
	UsageCount int `json:"usage_count"`
	// CreatedAt is when the association was first computed.
	CreatedAt time.Time `json:"created_at"`
}
