// Package db persists evaluation jobs.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"candidate-screening/internal/config"
	"candidate-screening/internal/models"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStore records job status and results. Implementations are safe for
// concurrent use.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	// List returns jobs newest first; an empty status lists every job.
	List(ctx context.Context, status models.JobStatus) ([]*models.Job, error)
	Close() error
}

// NewStore opens the job store selected by cfg.Driver.
func NewStore(ctx context.Context, cfg *config.DatabaseConfig) (JobStore, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStore(), nil
	}
	bdb, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := NewBunStore(bdb)
	if err := store.Init(ctx); err != nil {
		bdb.Close()
		return nil, err
	}
	return store, nil
}

// MemoryStore keeps jobs in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: map[string]models.Job{}}
}

func (s *MemoryStore) Create(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	out := copyJob(&job)
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, job.ID)
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

func (s *MemoryStore) List(_ context.Context, status models.JobStatus) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		j := copyJob(&job)
		out = append(out, &j)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyJob(job *models.Job) models.Job {
	out := *job
	if job.Result != nil {
		r := *job.Result
		out.Result = &r
	}
	return out
}
