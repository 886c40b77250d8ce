package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/glyphtech/symscan/internal/pipeline"
)

// Memory is an in-process Store for single-node deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (m *Memory) Create(_ context.Context, file string) (*Job, error) {
	j := newJob(file)
	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()
	cp := *j
	return &cp, nil
}

// Get returns a copy of the job or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *Memory) update(id string, fn func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(j)
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// SetRunning transitions a job to running and records progress.
func (m *Memory) SetRunning(_ context.Context, id string, progress pipeline.Progress) error {
	return m.update(id, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = progress
	})
}

// Complete stores the result and marks the job completed.
func (m *Memory) Complete(_ context.Context, id string, result *pipeline.Result) error {
	return m.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = result
	})
}

// Fail records the failure reason.
func (m *Memory) Fail(_ context.Context, id string, jobErr error) error {
	return m.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = jobErr.Error()
	})
}

// List returns jobs newest first.
func (m *Memory) List(_ context.Context, opts ListOptions) ([]*Job, error) {
	m.mu.RLock()
	all := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if opts.Status != "" && j.Status != opts.Status {
			continue
		}
		cp := *j
		all = append(all, &cp)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if opts.Offset > 0 {
		if opts.Offset >= len(all) {
			return nil, nil
		}
		all = all[opts.Offset:]
	}
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

// Close is a no-op for the memory store.
func (m *Memory) Close() error { return nil }
