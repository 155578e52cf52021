package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hivemindlab/swarm/pkg/models"
)

// Timing defaults for the background loops.
const (
	// DefaultMinUpdateInterval is the coalescing window per job.
	DefaultMinUpdateInterval = 1 * time.Second
	// DefaultFlushInterval is the batch flush period.
	DefaultFlushInterval = 2 * time.Second
	// DefaultHealthInterval is the remote health check period.
	DefaultHealthInterval = 30 * time.Second

	// degradedFailureThreshold is the consecutive-failure count that
	// flips the degraded flag.
	degradedFailureThreshold = 3

	// remoteWriteTimeout bounds one remote upsert.
	remoteWriteTimeout = 15 * time.Second
)

// Config tunes a Syncer. Zero values select the defaults above.
type Config struct {
	Tenant            string
	MinUpdateInterval time.Duration
	FlushInterval     time.Duration
	HealthInterval    time.Duration
	RetryAttempts     int
	RetryBase         time.Duration
}

// queueEntry is the coalesced pending write for one job. Only the most
// recent progress/message survives; the entry is overwritten in place.
type queueEntry struct {
	jobID    string
	progress float64
	message  string
	final    bool
	status   models.JobStatus
	report   string
}

// Syncer bridges the local job store to the remote collaborator. The
// local store is authoritative; remote mirroring is best-effort and
// never blocks the caller. A nil remote puts the syncer in local-only
// mode where every operation succeeds against the local record alone.
type Syncer struct {
	jobs    *JobStore
	remote  RemoteStore
	cfg     Config
	metrics *Metrics

	mu        sync.Mutex
	baselines map[string]float64
	queue     map[string]*queueEntry
	lastPush  map[string]time.Time

	sleep func(time.Duration)
	done  chan struct{}
	wg    sync.WaitGroup
}

// New creates a Syncer over the local store. remote may be nil for
// local-only operation.
func New(jobs *JobStore, remote RemoteStore, cfg Config) *Syncer {
	if cfg.MinUpdateInterval <= 0 {
		cfg.MinUpdateInterval = DefaultMinUpdateInterval
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = DefaultHealthInterval
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}

	return &Syncer{
		jobs:      jobs,
		remote:    remote,
		cfg:       cfg,
		metrics:   &Metrics{},
		baselines: make(map[string]float64),
		queue:     make(map[string]*queueEntry),
		lastPush:  make(map[string]time.Time),
		sleep:     time.Sleep,
		done:      make(chan struct{}),
	}
}

// LocalOnly reports whether the syncer operates without a remote.
func (s *Syncer) LocalOnly() bool {
	return s.remote == nil
}

// Start launches the flush and health loops. Local-only syncers have
// nothing to flush and start no goroutines.
func (s *Syncer) Start() {
	if s.remote == nil {
		return
	}
	s.wg.Add(2)
	go s.flushLoop()
	go s.healthLoop()
}

// Stop flushes once more and stops the background loops. The last
// flush drains throttled entries so nothing is stranded at shutdown.
func (s *Syncer) Stop() {
	close(s.done)
	s.wg.Wait()
	if s.remote != nil {
		s.flush(true)
	}
}

// CreateJob records a new job locally and mirrors its creation.
func (s *Syncer) CreateJob(agent, task string) (*models.Job, error) {
	job, err := s.jobs.CreateJob(agent, task)
	if err != nil {
		return nil, err
	}

	if s.remote != nil {
		s.enqueue(&queueEntry{
			jobID:   job.ID,
			message: "job created",
		})
	}
	return job, nil
}

// UpdateProgress writes the job's progress locally and queues a remote
// mirror write. Progress is clamped to the per-job monotonic baseline so
// the observed value never regresses even when callers race or report
// out of order.
func (s *Syncer) UpdateProgress(jobID string, progress float64, message string) error {
	s.metrics.recordUpdate()

	s.mu.Lock()
	if progress < s.baselines[jobID] {
		progress = s.baselines[jobID]
	}
	s.baselines[jobID] = progress
	s.mu.Unlock()

	if err := s.jobs.UpdateJobProgress(jobID, progress, message); err != nil {
		return err
	}

	if s.remote != nil {
		s.enqueue(&queueEntry{
			jobID:    jobID,
			progress: progress,
			message:  message,
		})
	}
	return nil
}

// MarkComplete finishes the job locally and queues the full terminal
// upsert (status plus report) for the remote.
func (s *Syncer) MarkComplete(jobID string, success bool, report string) error {
	status := models.JobStatusCompleted
	if !success {
		status = models.JobStatusFailed
	}
	if err := s.jobs.CompleteJob(jobID, status, report); err != nil {
		return err
	}

	s.mu.Lock()
	s.baselines[jobID] = 100
	s.mu.Unlock()

	if s.remote != nil {
		s.enqueue(&queueEntry{
			jobID:    jobID,
			progress: 100,
			message:  "job finished",
			final:    true,
			status:   status,
			report:   report,
		})
	}
	return nil
}

// GetMetrics returns a snapshot of the sync counters.
func (s *Syncer) GetMetrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// HealthCheck pings the remote. Local-only syncers are always healthy.
func (s *Syncer) HealthCheck(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	return s.remote.Ping(ctx)
}

// enqueue coalesces the entry into the per-job queue: only the most
// recent progress/message survives, overwritten in place, so the queue
// stays bounded under high-frequency reporting. A final entry always
// wins over a partial one.
func (s *Syncer) enqueue(e *queueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.queue[e.jobID]; ok && prev.final && !e.final {
		return
	}
	s.queue[e.jobID] = e
}

func (s *Syncer) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.flushOnce()
		}
	}
}

// flushOnce attempts one remote write per distinct job. A job pushed
// within MinUpdateInterval keeps its latest entry queued for a later
// cycle; final entries bypass the throttle. Entries that exhaust their
// retries are dropped with a metrics increment; they never block or
// propagate.
func (s *Syncer) flushOnce() {
	s.flush(false)
}

func (s *Syncer) flush(drain bool) {
	now := time.Now()

	s.mu.Lock()
	pending := make([]*queueEntry, 0, len(s.queue))
	for jobID, e := range s.queue {
		if !drain && !e.final && now.Sub(s.lastPush[jobID]) < s.cfg.MinUpdateInterval {
			continue
		}
		pending = append(pending, e)
		delete(s.queue, jobID)
		s.lastPush[jobID] = now
	}
	s.mu.Unlock()

	for _, e := range pending {
		s.push(e)
	}
}

func (s *Syncer) push(e *queueEntry) {
	up := JobUpsert{
		JobID:    e.jobID,
		Tenant:   s.cfg.Tenant,
		Progress: e.progress,
		Message:  e.message,
		Partial:  !e.final,
	}
	if e.final {
		up.Status = e.status
		up.Report = e.report
		if job, err := s.jobs.GetJob(e.jobID); err == nil && job != nil {
			up.Agent = job.Agent
			up.Task = job.Task
		}
	}

	start := time.Now()
	err := withRetry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
		defer cancel()
		return s.remote.UpsertJob(ctx, up)
	}, s.cfg.RetryAttempts, s.cfg.RetryBase, s.sleep)

	if err != nil {
		log.Printf("[syncer] dropping update for job %s after %d attempts: %v",
			e.jobID, s.cfg.RetryAttempts, err)
		s.metrics.recordFailure()
		return
	}
	s.metrics.recordSuccess(time.Since(start))
}

func (s *Syncer) healthLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
			err := s.remote.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("[syncer] health check failed: %v", err)
				s.metrics.recordFailure()
			}
		}
	}
}
