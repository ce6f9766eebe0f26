package jobmanager

import (
	"fmt"
	"sync"
	"time"
)

// JobID numbers jobs in submission order, starting at 1.
type JobID int64

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is final.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job is one submitted task. Its fields are guarded and read through methods.
type Job struct {
	id        JobID
	name      string
	status    JobStatus
	result    string
	err       error
	startTime time.Time
	endTime   time.Time
	done      chan struct{}
	mu        sync.RWMutex
}

func newJob(id JobID, name string) *Job {
	return &Job{
		id:     id,
		name:   name,
		status: StatusPending,
		done:   make(chan struct{}),
	}
}

// ID returns the job identifier.
func (j *Job) ID() JobID {
	return j.id
}

// Name returns the name the job was submitted with, usually a file path.
func (j *Job) Name() string {
	return j.name
}

// Status returns the current status of the job
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Result returns the task result, empty until the job completed.
func (j *Job) Result() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result
}

// Err returns the error of a failed or cancelled job.
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Done is closed when the job reaches a final status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Duration returns how long the job ran, so far if it is still running.
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.durationLocked()
}

func (j *Job) durationLocked() time.Duration {
	switch {
	case j.startTime.IsZero():
		return 0
	case j.endTime.IsZero():
		return time.Since(j.startTime)
	default:
		return j.endTime.Sub(j.startTime)
	}
}

func (j *Job) start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusRunning
	j.startTime = time.Now()
}

// finish records the outcome. Only the first call has an effect and
// reports true; its caller must then close done.
func (j *Job) finish(status JobStatus, result string, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Done() {
		return false
	}
	j.status = status
	j.result = result
	j.err = err
	j.endTime = time.Now()
	return true
}

// Summary is the serializable view of a job.
type Summary struct {
	ID       JobID     `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Status   JobStatus `json:"status" yaml:"status"`
	Duration string    `json:"duration,omitempty" yaml:"duration,omitempty"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary returns a snapshot of the job for reports.
func (j *Job) Summary() Summary {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := Summary{ID: j.id, Name: j.name, Status: j.status}
	if !j.endTime.IsZero() {
		s.Duration = j.durationLocked().String()
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

// String returns a string representation of the job
func (j *Job) String() string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	duration := string(j.status)
	if !j.endTime.IsZero() {
		duration = j.durationLocked().String()
	}
	return fmt.Sprintf("Job[%d] %s - %s (%s)", j.id, j.name, j.status, duration)
}
