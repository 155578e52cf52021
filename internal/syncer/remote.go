package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hivemindlab/swarm/pkg/models"
)

// JobUpsert is one keyed write against the remote store. Partial
// upserts carry progress and message only; full upserts additionally
// carry the terminal status and report.
type JobUpsert struct {
	JobID    string           `json:"job_id"`
	Tenant   string           `json:"tenant"`
	Agent    string           `json:"agent,omitempty"`
	Task     string           `json:"task,omitempty"`
	Status   models.JobStatus `json:"status,omitempty"`
	Progress float64          `json:"progress"`
	Message  string           `json:"message,omitempty"`
	Report   string           `json:"report,omitempty"`
	Partial  bool             `json:"partial"`
}

// RemoteStore is the remote persistence collaborator: a keyed upsert
// interface over job records.
type RemoteStore interface {
	UpsertJob(ctx context.Context, up JobUpsert) error
	Ping(ctx context.Context) error
}

// HTTPRemote talks to a remote job service over HTTP.
type HTTPRemote struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRemote creates a remote store client for the given base URL.
func NewHTTPRemote(baseURL string, timeout time.Duration) *HTTPRemote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRemote{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// UpsertJob PUTs the record to /jobs/{id}.
func (r *HTTPRemote) UpsertJob(ctx context.Context, up JobUpsert) error {
	body, err := json.Marshal(up)
	if err != nil {
		return fmt.Errorf("marshal upsert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/jobs/%s", r.baseURL, up.JobID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", up.JobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upsert job %s: remote returned %s", up.JobID, resp.Status)
	}
	return nil
}

// Ping checks remote reachability via /health.
func (r *HTTPRemote) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("health check: remote returned %s", resp.Status)
	}
	return nil
}

var _ RemoteStore = (*HTTPRemote)(nil)
