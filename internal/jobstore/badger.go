package jobstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/glyphtech/symscan/internal/pipeline"
)

// Badger persists jobs in an embedded key-value store so results
// survive restarts.
type Badger struct {
	store *badgerhold.Store
}

// OpenBadger opens or creates the store at dir.
func OpenBadger(dir string) (*Badger, error) {
	opts := badgerhold.DefaultOptions
	opts.Options = badger.DefaultOptions(dir).WithLogger(nil)
	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store at %s: %w", dir, err)
	}
	return &Badger{store: store}, nil
}

// Create registers a new pending job.
func (b *Badger) Create(_ context.Context, file string) (*Job, error) {
	j := newJob(file)
	if err := b.store.Insert(j.ID, j); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return j, nil
}

// Get returns the stored job or ErrNotFound.
func (b *Badger) Get(_ context.Context, id string) (*Job, error) {
	var j Job
	if err := b.store.Get(id, &j); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return &j, nil
}

func (b *Badger) update(id string, fn func(*Job)) error {
	var j Job
	if err := b.store.Get(id, &j); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load job %s: %w", id, err)
	}
	fn(&j)
	j.UpdatedAt = time.Now().UTC()
	if err := b.store.Upsert(id, &j); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return nil
}

// SetRunning transitions a job to running and records progress.
func (b *Badger) SetRunning(_ context.Context, id string, progress pipeline.Progress) error {
	return b.update(id, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = progress
	})
}

// Complete stores the result and marks the job completed.
func (b *Badger) Complete(_ context.Context, id string, result *pipeline.Result) error {
	return b.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = result
	})
}

// Fail records the failure reason.
func (b *Badger) Fail(_ context.Context, id string, jobErr error) error {
	return b.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = jobErr.Error()
	})
}

// List returns jobs newest first.
func (b *Badger) List(_ context.Context, opts ListOptions) ([]*Job, error) {
	query := badgerhold.Where("ID").Ne("")
	if opts.Status != "" {
		query = query.And("Status").Eq(opts.Status)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if opts.Offset > 0 {
		query = query.Skip(opts.Offset)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	var jobs []Job
	if err := b.store.Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	out := make([]*Job, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out, nil
}

// Close closes the underlying store.
func (b *Badger) Close() error {
	return b.store.Close()
}
