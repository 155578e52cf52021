// Package syncer keeps the authoritative local job record and mirrors it
// to a slower, occasionally unavailable remote store without ever
// blocking the executor.
package syncer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hivemindlab/swarm/pkg/models"
)

// JobStore is the SQLite-backed local job record.
type JobStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// JobDBPath returns the path to the project-local job database.
func JobDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".swarm", "jobs.db")
}

// OpenJobStore opens (creating if necessary) the job store at the given
// path. WAL mode is enabled for concurrent reads.
func OpenJobStore(path string) (*JobStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &JobStore{db: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *JobStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			task TEXT NOT NULL,
			status TEXT NOT NULL,
			progress REAL NOT NULL DEFAULT 0,
			current_message TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			completed_at TEXT,
			report_content TEXT NOT NULL DEFAULT '',
			duration_seconds REAL NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at);
	`)
	if err != nil {
		return fmt.Errorf("migrate jobs table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *JobStore) Path() string {
	return s.path
}

// CreateJob inserts a new running job and returns it.
func (s *JobStore) CreateJob(agent, task string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &models.Job{
		ID:        uuid.New().String()[:8],
		Agent:     agent,
		Task:      task,
		Status:    models.JobStatusRunning,
		StartedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, agent, task, status, progress, current_message, started_at)
		VALUES (?, ?, ?, ?, 0, '', ?)
	`, job.ID, job.Agent, job.Task, string(job.Status), formatTime(job.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// UpdateJobProgress writes the job's progress and message.
func (s *JobStore) UpdateJobProgress(jobID string, progress float64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE jobs SET progress = ?, current_message = ? WHERE id = ?
	`, progress, message, jobID)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// CompleteJob marks the job finished with the given terminal status and
// final report.
func (s *JobStore) CompleteJob(jobID string, status models.JobStatus, report string) error {
	if status != models.JobStatusCompleted && status != models.JobStatusFailed {
		return fmt.Errorf("complete job: %q is not a terminal status", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	_, err := s.db.Exec(`
		UPDATE jobs
		SET status = ?, progress = 100, completed_at = ?, report_content = ?,
			duration_seconds = (julianday(?) - julianday(started_at)) * 86400
		WHERE id = ?
	`, string(status), formatTime(now), report, formatTime(now), jobID)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID, or nil when absent.
func (s *JobStore) GetJob(jobID string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(jobSelect+" WHERE id = ?", jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// ListJobs returns the most recent jobs up to limit.
func (s *JobStore) ListJobs(limit int) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(jobSelect+" ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

const jobSelect = `
	SELECT id, agent, task, status, progress, current_message,
		   started_at, completed_at, report_content, duration_seconds
	FROM jobs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var status, startedAt string
	var completedAt sql.NullString
	err := row.Scan(&job.ID, &job.Agent, &job.Task, &status, &job.Progress,
		&job.CurrentMessage, &startedAt, &completedAt, &job.ReportContent,
		&job.DurationSeconds)
	if err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	if job.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse job started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse job completed_at: %w", err)
		}
		job.CompletedAt = &t
	}
	return &job, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
