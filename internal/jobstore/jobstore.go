// Package jobstore persists asynchronous detection jobs. Callers depend
// on the Store interface; a process-local memory store and a Badger
// store are provided.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glyphtech/symscan/internal/pipeline"
)

// ErrNotFound is returned when no job has the requested ID.
var ErrNotFound = errors.New("jobstore: job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one asynchronous detection request and its outcome.
type Job struct {
	ID        string    `json:"id" badgerhold:"key"`
	File      string    `json:"file"`
	Status    Status    `json:"status" badgerholdIndex:"Status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Progress mirrors the pipeline's last progress snapshot.
	Progress pipeline.Progress `json:"progress"`
	// Result is set once the job completes.
	Result *pipeline.Result `json:"result,omitempty"`
	// Error is set when the job fails.
	Error string `json:"error,omitempty"`
}

// ListOptions filters and pages List results.
type ListOptions struct {
	Status Status
	Limit  int
	Offset int
}

// Store is the persistence boundary for jobs. Implementations must be
// safe for concurrent use.
type Store interface {
	// Create registers a new pending job for file and returns it.
	Create(ctx context.Context, file string) (*Job, error)
	// Get returns the job with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)
	// SetRunning transitions a job to running and records progress.
	SetRunning(ctx context.Context, id string, progress pipeline.Progress) error
	// Complete stores the result and marks the job completed.
	Complete(ctx context.Context, id string, result *pipeline.Result) error
	// Fail records the failure reason.
	Fail(ctx context.Context, id string, jobErr error) error
	// List returns jobs newest first.
	List(ctx context.Context, opts ListOptions) ([]*Job, error)
	// Close releases underlying resources.
	Close() error
}

// newJob builds a pending job with a fresh ID.
func newJob(file string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		File:      file,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
