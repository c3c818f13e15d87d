// Package jobs runs evaluations in the background and records their outcome.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"candidate-screening/internal/db"
	"candidate-screening/internal/helper"
	"candidate-screening/internal/models"
	"candidate-screening/internal/parser"
)

// Evaluator scores one candidate.
type Evaluator interface {
	Evaluate(ctx context.Context, cvText, reportText, jobTitle string) (*models.EvaluationResult, error)
}

// Documents resolves upload ids to file paths.
type Documents interface {
	Path(id string) (string, error)
}

// Request asks for one candidate evaluation.
type Request struct {
	JobTitle string `json:"job_title" validate:"required,max=200"`
	CVID     string `json:"cv_id" validate:"required,uuid"`
	ReportID string `json:"report_id" validate:"required,uuid"`
}

// Runner starts one goroutine per job and caps how many evaluate at once.
type Runner struct {
	store     db.JobStore
	evaluator Evaluator
	docs      Documents
	sem       *semaphore.Weighted
	wg        sync.WaitGroup

	// Extract turns a stored upload into text; it must not fail.
	Extract func(path string) string
	now     func() time.Time
}

func NewRunner(store db.JobStore, evaluator Evaluator, docs Documents, maxConcurrent int) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		store:     store,
		evaluator: evaluator,
		docs:      docs,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		Extract:   parser.ExtractText,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a queued job and starts it. The run is detached from ctx
// so it outlives the request that created it.
func (r *Runner) Submit(ctx context.Context, req Request) (*models.Job, error) {
	cvPath, err := r.docs.Path(req.CVID)
	if err != nil {
		return nil, err
	}
	reportPath, err := r.docs.Path(req.ReportID)
	if err != nil {
		return nil, err
	}

	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	now := r.now()
	job := &models.Job{
		ID:        id,
		Status:    models.JobQueued,
		JobTitle:  req.JobTitle,
		CVID:      req.CVID,
		ReportID:  req.ReportID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Create(ctx, job); err != nil {
		return nil, err
	}

	r.wg.Add(1)
	go r.run(context.WithoutCancel(ctx), *job, cvPath, reportPath)

	log.Info().Str("job_id", job.ID).Msg("Job queued for evaluation")
	return job, nil
}

func (r *Runner) run(ctx context.Context, job models.Job, cvPath, reportPath string) {
	defer r.wg.Done()
	logger := log.With().Str("job_id", job.ID).Logger()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finish(ctx, &job, nil, err)
		return
	}
	defer r.sem.Release(1)

	job.Status = models.JobProcessing
	job.UpdatedAt = r.now()
	if err := r.store.Update(ctx, &job); err != nil {
		logger.Error().Err(err).Msg("Failed to mark job processing")
	}
	logger.Info().Msg("Starting evaluation")

	var result *models.EvaluationResult
	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("evaluation panicked: %v", p)
			}
		}()
		cvText := r.Extract(cvPath)
		reportText := r.Extract(reportPath)
		result, err = r.evaluator.Evaluate(ctx, cvText, reportText, job.JobTitle)
		return err
	}()
	r.finish(ctx, &job, result, err)
}

func (r *Runner) finish(ctx context.Context, job *models.Job, result *models.EvaluationResult, err error) {
	logger := log.With().Str("job_id", job.ID).Logger()
	if err != nil {
		job.Status = models.JobFailed
		job.Error = err.Error()
		logger.Error().Err(err).Msg("Evaluation failed")
	} else {
		job.Status = models.JobCompleted
		job.Result = result
		logger.Info().Msg("Evaluation completed successfully")
	}
	job.UpdatedAt = r.now()
	if uerr := r.store.Update(ctx, job); uerr != nil {
		logger.Error().Err(uerr).Msg("Failed to store job outcome")
	}
}

// Wait blocks until every submitted job has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
