package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-screening/internal/db"
	"candidate-screening/internal/models"
	"candidate-screening/internal/uploads"
)

type MockEvaluator struct {
	EvaluateFunc func(ctx context.Context, cvText, reportText, jobTitle string) (*models.EvaluationResult, error)
}

func (m *MockEvaluator) Evaluate(ctx context.Context, cvText, reportText, jobTitle string) (*models.EvaluationResult, error) {
	return m.EvaluateFunc(ctx, cvText, reportText, jobTitle)
}

type mockDocs map[string]string

func (m mockDocs) Path(id string) (string, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", uploads.ErrNotFound, id)
}

func setup(t *testing.T, eval *MockEvaluator, maxConcurrent int) (*Runner, *db.MemoryStore, Request) {
	t.Helper()
	cvID, reportID := uuid.NewString(), uuid.NewString()
	docs := mockDocs{cvID: "/uploads/cv.pdf", reportID: "/uploads/report.pdf"}
	store := db.NewMemoryStore()
	r := NewRunner(store, eval, docs, maxConcurrent)
	r.Extract = func(path string) string { return "text of " + path }
	return r, store, Request{JobTitle: "Backend Engineer", CVID: cvID, ReportID: reportID}
}

func waitAll(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))
}

func TestSubmit_Completes(t *testing.T) {
	var gotCV, gotReport, gotTitle string
	eval := &MockEvaluator{EvaluateFunc: func(_ context.Context, cv, report, title string) (*models.EvaluationResult, error) {
		gotCV, gotReport, gotTitle = cv, report, title
		return &models.EvaluationResult{CVMatchRate: 0.81, ProjectScore: 4.05}, nil
	}}
	r, store, req := setup(t, eval, 2)

	job, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.JobQueued, job.Status)
	assert.NotEmpty(t, job.ID)

	waitAll(t, r)
	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 0.81, got.Result.CVMatchRate)
	assert.Empty(t, got.Error)

	assert.Equal(t, "text of /uploads/cv.pdf", gotCV)
	assert.Equal(t, "text of /uploads/report.pdf", gotReport)
	assert.Equal(t, "Backend Engineer", gotTitle)
}

func TestSubmit_FailureKeepsMessage(t *testing.T) {
	eval := &MockEvaluator{EvaluateFunc: func(context.Context, string, string, string) (*models.EvaluationResult, error) {
		return nil, errors.New("cv_evaluation failed: generation failed after 3 attempts: quota")
	}}
	r, store, req := setup(t, eval, 1)

	job, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	waitAll(t, r)

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Equal(t, "cv_evaluation failed: generation failed after 3 attempts: quota", got.Error)
	assert.Nil(t, got.Result)
}

func TestSubmit_PanicMarksFailed(t *testing.T) {
	eval := &MockEvaluator{EvaluateFunc: func(context.Context, string, string, string) (*models.EvaluationResult, error) {
		panic("boom")
	}}
	r, store, req := setup(t, eval, 1)

	job, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	waitAll(t, r)

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFailed, got.Status)
	assert.Contains(t, got.Error, "boom")
}

func TestSubmit_UnknownDocument(t *testing.T) {
	r, store, req := setup(t, &MockEvaluator{}, 1)
	req.ReportID = uuid.NewString()

	_, err := r.Submit(context.Background(), req)
	assert.ErrorIs(t, err, uploads.ErrNotFound)

	jobs, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmit_OutlivesRequestContext(t *testing.T) {
	eval := &MockEvaluator{EvaluateFunc: func(ctx context.Context, _, _, _ string) (*models.EvaluationResult, error) {
		time.Sleep(20 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &models.EvaluationResult{}, nil
	}}
	r, store, req := setup(t, eval, 1)

	ctx, cancel := context.WithCancel(context.Background())
	job, err := r.Submit(ctx, req)
	require.NoError(t, err)
	cancel()
	waitAll(t, r)

	got, err := store.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, got.Status)
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	var active, peak int32
	eval := &MockEvaluator{EvaluateFunc: func(context.Context, string, string, string) (*models.EvaluationResult, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return &models.EvaluationResult{}, nil
	}}
	r, store, req := setup(t, eval, 2)

	for i := 0; i < 6; i++ {
		_, err := r.Submit(context.Background(), req)
		require.NoError(t, err)
	}
	waitAll(t, r)

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	done, err := store.List(context.Background(), models.JobCompleted)
	require.NoError(t, err)
	assert.Len(t, done, 6)
}
