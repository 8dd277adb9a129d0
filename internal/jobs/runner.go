package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// JobHandler does the work of one job. It reports percent complete through
// progress and returns a JSON-encodable result.
type JobHandler func(ctx context.Context, job *Job, progress func(int)) (any, error)

var (
	ErrQueueFull      = errors.New("job queue is full")
	ErrStopped        = errors.New("job runner is stopped")
	ErrJobNotFound    = errors.New("job not found")
	ErrNotCancellable = errors.New("job already finished")
)

// RunnerConfig sizes the runner's queue and worker pool.
type RunnerConfig struct {
	QueueSize   int
	WorkerCount int
}

func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{QueueSize: 64, WorkerCount: 2}
}

// RunnerStats is a point-in-time view of the runner, served on /health.
type RunnerStats struct {
	Queued    int   `json:"queued"`
	Capacity  int   `json:"capacity"`
	Running   int   `json:"running"`
	Workers   int   `json:"workers"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}

// Runner executes jobs on a fixed pool of workers fed by a bounded queue.
// Submit never blocks: a full queue fails the job with ErrQueueFull.
type Runner struct {
	store  *Store
	logger *slog.Logger
	config RunnerConfig

	queue   chan *Job
	stopped chan struct{}
	stop    sync.Once
	workers sync.WaitGroup

	mu       sync.RWMutex
	handlers map[JobType]JobHandler
	inflight map[string]context.CancelFunc

	succeeded atomic.Int64
	failed    atomic.Int64

	// OnFinish receives a copy of every job once it settles.
	OnFinish func(job *Job)
}

func NewRunner(store *Store, logger *slog.Logger, config RunnerConfig) *Runner {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	config.WorkerCount = max(config.WorkerCount, 1)
	if store == nil {
		store = NewStore()
	}
	return &Runner{
		store:    store,
		logger:   logger,
		config:   config,
		queue:    make(chan *Job, config.QueueSize),
		stopped:  make(chan struct{}),
		handlers: make(map[JobType]JobHandler),
		inflight: make(map[string]context.CancelFunc),
	}
}

// RegisterHandler sets the handler for jobs of jobType.
func (r *Runner) RegisterHandler(jobType JobType, handler JobHandler) {
	r.mu.Lock()
	r.handlers[jobType] = handler
	r.mu.Unlock()
}

// Start launches the workers.
func (r *Runner) Start() {
	r.logger.Debug("Job runner starting", "workers", r.config.WorkerCount, "queue", r.config.QueueSize)
	for i := range r.config.WorkerCount {
		r.workers.Add(1)
		go r.work(i)
	}
}

// Stop cancels in-flight jobs, waits up to timeout for the workers, and
// settles anything left in the queue as cancelled. It is safe to call more
// than once.
func (r *Runner) Stop(timeout time.Duration) error {
	r.stop.Do(func() { close(r.stopped) })

	r.mu.Lock()
	for _, cancel := range r.inflight {
		cancel()
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	idle := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
		return fmt.Errorf("job runner: workers still busy after %v", timeout)
	}

	for drained := 0; ; drained++ {
		select {
		case job := <-r.queue:
			job.MarkCancelled()
			_ = r.store.UpdateJob(job)
		default:
			r.logger.Debug("Job runner stopped", "drained", drained)
			return nil
		}
	}
}

// IsRunning reports whether Stop has not yet been called.
func (r *Runner) IsRunning() bool {
	select {
	case <-r.stopped:
		return false
	default:
		return true
	}
}

// Submit records job and queues it. The runner owns job from here on; read
// it back with GetJob.
func (r *Runner) Submit(job *Job) error {
	if !r.IsRunning() {
		return ErrStopped
	}
	if err := r.store.CreateJob(job); err != nil {
		return err
	}
	select {
	case r.queue <- job:
		r.logger.Debug("Job queued", "jobId", job.ID, "type", job.Type)
		return nil
	default:
	}
	job.MarkFailed(ErrQueueFull)
	_ = r.store.UpdateJob(job)
	r.failed.Add(1)
	r.logger.Warn("Job dropped, queue full", "jobId", job.ID, "type", job.Type)
	return ErrQueueFull
}

// Go submits a job that runs fn instead of the handler registered for
// jobType, and returns the queued record.
func (r *Runner) Go(jobType JobType, scope any, fn JobHandler) (*Job, error) {
	job, err := NewJob(jobType, scope)
	if err != nil {
		return nil, err
	}
	job.run = fn
	snapshot := job.clone()
	if err := r.Submit(job); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Cancel stops a queued or running job. A running job is settled by its
// worker once the handler returns.
func (r *Runner) Cancel(jobID string) error {
	job, err := r.store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrNotCancellable, jobID, job.Status)
	}

	r.mu.RLock()
	cancel, running := r.inflight[jobID]
	r.mu.RUnlock()
	if running {
		cancel()
		return nil
	}
	job.MarkCancelled()
	return r.store.UpdateJob(job)
}

func (r *Runner) GetJob(jobID string) (*Job, error) {
	return r.store.GetJob(jobID)
}

func (r *Runner) ListJobs(opts ListJobsOptions) (*ListJobsResponse, error) {
	return r.store.ListJobs(opts)
}

func (r *Runner) Stats() RunnerStats {
	r.mu.RLock()
	running := len(r.inflight)
	r.mu.RUnlock()
	return RunnerStats{
		Queued:    len(r.queue),
		Capacity:  r.config.QueueSize,
		Running:   running,
		Workers:   r.config.WorkerCount,
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
	}
}

func (r *Runner) work(id int) {
	defer r.workers.Done()
	for {
		select {
		case <-r.stopped:
			r.logger.Debug("Job worker exiting", "worker", id)
			return
		case job := <-r.queue:
			r.run(job)
		}
	}
}

func (r *Runner) handlerFor(job *Job) JobHandler {
	if job.run != nil {
		return job.run
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[job.Type]
}

func (r *Runner) run(job *Job) {
	// Cancel settles queued jobs through the store, not this copy.
	if stored, _ := r.store.GetJob(job.ID); stored != nil && stored.IsTerminal() {
		return
	}

	handler := r.handlerFor(job)
	if handler == nil {
		job.MarkFailed(fmt.Errorf("no handler for job type %q", job.Type))
		r.settle(job, 0)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.inflight[job.ID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.inflight, job.ID)
		r.mu.Unlock()
		cancel()
	}()

	job.MarkStarted()
	_ = r.store.UpdateJob(job)

	start := time.Now()
	result, err := handler(ctx, job, func(pct int) {
		job.SetProgress(pct)
		_ = r.store.UpdateJob(job)
	})
	switch {
	case err != nil && ctx.Err() != nil:
		job.MarkCancelled()
	case err != nil:
		job.MarkFailed(err)
	default:
		if encErr := job.MarkCompleted(result); encErr != nil {
			job.MarkFailed(fmt.Errorf("encode result: %w", encErr))
		}
	}
	r.settle(job, time.Since(start))
}

func (r *Runner) settle(job *Job, took time.Duration) {
	switch job.Status {
	case JobFailed:
		r.failed.Add(1)
		r.logger.Error("Job failed", "jobId", job.ID, "type", job.Type, "error", job.Error, "duration", took)
	case JobCancelled:
		r.logger.Info("Job cancelled", "jobId", job.ID, "type", job.Type, "duration", took)
	default:
		r.succeeded.Add(1)
		r.logger.Info("Job completed", "jobId", job.ID, "type", job.Type, "duration", took)
	}
	if err := r.store.UpdateJob(job); err != nil {
		r.logger.Error("Job state not saved", "jobId", job.ID, "error", err)
	}
	if r.OnFinish != nil {
		r.OnFinish(job.clone())
	}
}
