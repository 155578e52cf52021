package models

import "time"

// JobStatus represents the lifecycle state of a swarm job.
type JobStatus string

const (
	// JobStatusPending indicates the job has not started.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the swarm is executing.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the swarm finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the swarm finished unsuccessfully.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Job is the authoritative local record of one swarm run. It is owned
// exclusively by the executor while running; the sync layer only reads it.
type Job struct {
	// ID is the unique identifier for this job.
	ID string `json:"id"`
	// Agent names the orchestrating agent configuration.
	Agent string `json:"agent"`
	// Task is the task text the swarm is working on.
	Task string `json:"task"`
	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`
	// Progress is the completion percentage in [0,100]. It never
	// decreases once the job is running.
	Progress float64 `json:"progress"`
	// CurrentMessage describes the most recent progress step.
	CurrentMessage string `json:"current_message,omitempty"`
	// StartedAt is when the job began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the job finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// ReportContent is the final synthesized report.
	ReportContent string `json:"report_content,omitempty"`
	// DurationSeconds is the total run duration.
	DurationSeconds float64 `json:"duration_seconds"`
}

// Terminal returns true when the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
