package memory

// Migrate creates the necessary tables and indexes if they don't exist.
func (b *Bank) Migrate() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS bank_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := b.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM bank_schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Patterns},
		{2, migrationV2Learning},
		{3, migrationV3Meta},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := b.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := tx.Exec("INSERT INTO bank_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Patterns = `
CREATE TABLE IF NOT EXISTS patterns (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	task TEXT NOT NULL,
	role TEXT NOT NULL,
	input_summary TEXT NOT NULL DEFAULT '',
	output_summary TEXT NOT NULL DEFAULT '',
	reward REAL NOT NULL DEFAULT 0,
	success INTEGER NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	critique TEXT NOT NULL DEFAULT '',
	latency_ms INTEGER NOT NULL DEFAULT 0,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patterns_job ON patterns(job_id);
CREATE INDEX IF NOT EXISTS idx_patterns_success ON patterns(success);
CREATE INDEX IF NOT EXISTS idx_patterns_created_at ON patterns(created_at);

-- Full-text search on task and summaries
CREATE VIRTUAL TABLE IF NOT EXISTS patterns_fts USING fts5(
	task,
	input_summary,
	output_summary,
	content='patterns',
	content_rowid='rowid'
);

-- Triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS patterns_ai AFTER INSERT ON patterns BEGIN
	INSERT INTO patterns_fts(rowid, task, input_summary, output_summary)
	VALUES (NEW.rowid, NEW.task, NEW.input_summary, NEW.output_summary);
END;

CREATE TRIGGER IF NOT EXISTS patterns_ad AFTER DELETE ON patterns BEGIN
	INSERT INTO patterns_fts(patterns_fts, rowid, task, input_summary, output_summary)
	VALUES ('delete', OLD.rowid, OLD.task, OLD.input_summary, OLD.output_summary);
END;

CREATE TABLE IF NOT EXISTS vector_embeddings (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	source_type TEXT NOT NULL,
	content_text TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	vector BLOB NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_embeddings_hash ON vector_embeddings(content_hash);
CREATE INDEX IF NOT EXISTS idx_embeddings_source ON vector_embeddings(source_id);
`

const migrationV2Learning = `
CREATE TABLE IF NOT EXISTS learning_episodes (
	id TEXT PRIMARY KEY,
	pattern_id TEXT NOT NULL,
	episode_number INTEGER NOT NULL,
	task_category TEXT NOT NULL DEFAULT 'general',
	difficulty_level INTEGER NOT NULL DEFAULT 1,
	initial_score REAL NOT NULL,
	final_score REAL NOT NULL,
	improvement_rate REAL NOT NULL,
	exploration_rate REAL NOT NULL,
	exploitation_rate REAL NOT NULL,
	learning_rate REAL NOT NULL,
	verdict TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	completed_at DATETIME NOT NULL,
	UNIQUE(pattern_id, episode_number)
);

CREATE INDEX IF NOT EXISTS idx_episodes_pattern ON learning_episodes(pattern_id);

CREATE TABLE IF NOT EXISTS memory_distillations (
	id TEXT PRIMARY KEY,
	source_category TEXT NOT NULL UNIQUE,
	source_pattern_ids TEXT NOT NULL DEFAULT '[]',
	key_insights TEXT NOT NULL DEFAULT '',
	success_factors TEXT NOT NULL DEFAULT '',
	failure_patterns TEXT NOT NULL DEFAULT '',
	best_practices TEXT NOT NULL DEFAULT '',
	confidence_score REAL NOT NULL DEFAULT 0,
	success_rate REAL NOT NULL DEFAULT 0,
	usage_count INTEGER NOT NULL DEFAULT 0,
	last_used_at DATETIME,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS pattern_associations (
	id TEXT PRIMARY KEY,
	pattern_id_a TEXT NOT NULL,
	pattern_id_b TEXT NOT NULL,
	similarity_score REAL NOT NULL DEFAULT 0,
	association_type TEXT NOT NULL,
	learning_value REAL NOT NULL DEFAULT 0,
	usage_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	UNIQUE(pattern_id_a, pattern_id_b)
);

CREATE INDEX IF NOT EXISTS idx_associations_a ON pattern_associations(pattern_id_a);
CREATE INDEX IF NOT EXISTS idx_associations_b ON pattern_associations(pattern_id_b);
`

const migrationV3Meta = `
-- Durable counters, e.g. successes recorded since the last learning session
CREATE TABLE IF NOT EXISTS bank_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
