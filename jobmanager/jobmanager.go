// Package jobmanager runs tasks on a bounded number of goroutines and keeps
// their outcomes in submission order.
package jobmanager

import (
	"context"
	"fmt"
	"sync"

	"maxfmt/logging"
)

// Task is the work of one job. Its string result is kept on the job.
type Task func(ctx context.Context) (string, error)

// Notification reports a job reaching a final status.
type Notification struct {
	JobID  JobID
	Status JobStatus
	Error  error
}

// Option configures a JobManager.
type Option func(*JobManager)

// WithLogger sets the logger for job lifecycle events.
func WithLogger(logger logging.Logger) Option {
	return func(jm *JobManager) {
		if logger != nil {
			jm.logger = logger.WithComponent("jobs")
		}
	}
}

// WithNotify registers a callback run after each job finishes. It is called
// from the job's goroutine.
func WithNotify(fn func(Notification)) Option {
	return func(jm *JobManager) {
		jm.notify = fn
	}
}

// JobManager manages the lifecycle of submitted tasks.
type JobManager struct {
	jobs      []*Job
	cancels   map[JobID]context.CancelFunc
	mu        sync.RWMutex
	semaphore chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	logger    logging.Logger
	notify    func(Notification)
}

// NewJobManager creates a JobManager running at most concurrencyLimit tasks
// at once. Limits below 1 are raised to 1.
func NewJobManager(concurrencyLimit int, opts ...Option) *JobManager {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	jm := &JobManager{
		cancels:   make(map[JobID]context.CancelFunc),
		semaphore: make(chan struct{}, concurrencyLimit),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(jm)
	}
	return jm
}

// Submit queues task under name and returns its job at once. The task runs
// when a slot frees up; it is cancelled instead if ctx or the manager is
// done first. ctx also bounds the task itself.
func (jm *JobManager) Submit(ctx context.Context, name string, task Task) (*Job, error) {
	select {
	case <-jm.ctx.Done():
		return nil, fmt.Errorf("job manager is shutting down")
	default:
	}

	taskCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(jm.ctx, cancel)

	jm.mu.Lock()
	job := newJob(JobID(len(jm.jobs)+1), name)
	jm.jobs = append(jm.jobs, job)
	jm.cancels[job.id] = cancel
	jm.mu.Unlock()

	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		defer stop()
		defer cancel()
		jm.executeJob(taskCtx, job, task)
	}()

	return job, nil
}

// executeJob waits for a slot, runs the task and records its outcome.
func (jm *JobManager) executeJob(ctx context.Context, job *Job, task Task) {
	select {
	case jm.semaphore <- struct{}{}:
	case <-ctx.Done():
		jm.complete(job, StatusCancelled, "", ctx.Err())
		return
	}
	defer func() { <-jm.semaphore }()

	if err := ctx.Err(); err != nil {
		jm.complete(job, StatusCancelled, "", err)
		return
	}

	job.start()
	jm.logger.Debug("job started", logging.IntField("job", int(job.id)), logging.StringField("name", job.name))

	result, err := task(ctx)
	switch {
	case err == nil:
		jm.complete(job, StatusCompleted, result, nil)
	case ctx.Err() != nil:
		jm.complete(job, StatusCancelled, "", err)
	default:
		jm.complete(job, StatusFailed, "", err)
	}
}

func (jm *JobManager) complete(job *Job, status JobStatus, result string, err error) {
	if !job.finish(status, result, err) {
		return
	}
	defer close(job.done)

	jm.mu.Lock()
	delete(jm.cancels, job.id)
	jm.mu.Unlock()

	fields := []logging.LogField{
		logging.IntField("job", int(job.id)),
		logging.StringField("name", job.name),
		logging.StringField("status", string(status)),
		logging.DurationField("duration", job.Duration()),
	}
	if err != nil {
		jm.logger.Warn("job finished", append(fields, logging.ErrorField("error", err))...)
	} else {
		jm.logger.Debug("job finished", fields...)
	}

	if jm.notify != nil {
		jm.notify(Notification{JobID: job.id, Status: status, Error: err})
	}
}

// GetJob returns a specific job
func (jm *JobManager) GetJob(id JobID) (*Job, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	if id < 1 || int(id) > len(jm.jobs) {
		return nil, fmt.Errorf("job with ID %d not found", id)
	}
	return jm.jobs[id-1], nil
}

// ListJobs returns all jobs in submission order.
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return append([]*Job(nil), jm.jobs...)
}

// Wait blocks until every job submitted so far is final or ctx is done, and
// returns the jobs in submission order.
func (jm *JobManager) Wait(ctx context.Context) ([]*Job, error) {
	jobs := jm.ListJobs()
	for _, job := range jobs {
		select {
		case <-job.Done():
		case <-ctx.Done():
			return jobs, ctx.Err()
		}
	}
	return jobs, nil
}

// CancelJob cancels a pending or running job. A running task only stops if
// it watches its context.
func (jm *JobManager) CancelJob(id JobID) error {
	job, err := jm.GetJob(id)
	if err != nil {
		return err
	}
	if status := job.Status(); status.Done() {
		return fmt.Errorf("job %d is not running (status: %s)", id, status)
	}

	jm.mu.RLock()
	cancel := jm.cancels[id]
	jm.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// GetRunningJobsCount returns the number of jobs currently running a task.
func (jm *JobManager) GetRunningJobsCount() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	count := 0
	for _, job := range jm.jobs {
		if job.Status() == StatusRunning {
			count++
		}
	}
	return count
}

// GetConcurrencyLimit returns the concurrency limit
func (jm *JobManager) GetConcurrencyLimit() int {
	return cap(jm.semaphore)
}

// Shutdown cancels every unfinished job and waits for their goroutines.
func (jm *JobManager) Shutdown() {
	jm.cancel()
	jm.wg.Wait()
}
