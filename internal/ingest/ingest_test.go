package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-screening/internal/chromemdb"
	"candidate-screening/internal/config"
	"candidate-screening/internal/embedding"
	"candidate-screening/internal/models"
)

type MockStore struct {
	IngestFunc func(chunks []models.ChunkInput, baseID string) error
	calls      map[string][]models.ChunkInput
}

func (m *MockStore) Ingest(_ context.Context, chunks []models.ChunkInput, baseID string) error {
	if m.calls == nil {
		m.calls = map[string][]models.ChunkInput{}
	}
	m.calls[baseID] = chunks
	if m.IngestFunc != nil {
		return m.IngestFunc(chunks, baseID)
	}
	return nil
}

func ragConfig() *config.RAGConfig {
	return &config.RAGConfig{Collection: "ingest_test", InMemory: true, ChunkSize: 1000, ChunkOverlap: 200, TopK: 2}
}

func TestIngestDir_ClassifiesAndChunks(t *testing.T) {
	dir := t.TempDir()
	_, err := SeedSampleDocs(dir, config.RubricLayoutUnified)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.png"), []byte("binary"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	store := &MockStore{}
	report, err := NewIngester(store, ragConfig()).IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 3, report.Chunks)
	assert.Equal(t, []string{"notes.png"}, report.Skipped)
	assert.Equal(t, 1, report.ByDocType[models.DocTypeScoringRubric])

	chunks, ok := store.calls["ground_truth_job_description_job_description"]
	require.True(t, ok)
	require.Len(t, chunks, 1)
	assert.Equal(t, models.DocTypeJobDescription, chunks[0].DocType)
	assert.Equal(t, "job_description.txt", chunks[0].SourceFile)
}

func TestIngestDir_StoreFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := SeedSampleDocs(dir, config.RubricLayoutSplit)
	require.NoError(t, err)

	store := &MockStore{IngestFunc: func([]models.ChunkInput, string) error { return errors.New("disk full") }}
	_, err = NewIngester(store, ragConfig()).IngestDir(context.Background(), dir)
	assert.ErrorContains(t, err, "disk full")
}

func TestIngestDir_MissingDir(t *testing.T) {
	_, err := NewIngester(&MockStore{}, ragConfig()).IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestIngestDir_IntoKnowledgeBase(t *testing.T) {
	dir := t.TempDir()
	_, err := SeedSampleDocs(dir, config.RubricLayoutSplit)
	require.NoError(t, err)

	kb, err := chromemdb.NewVectorDBManager(ragConfig(), embedding.NewHashEmbeddingFunc(256))
	require.NoError(t, err)

	report, err := NewIngester(kb, ragConfig()).IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Documents)
	assert.Equal(t, 4, kb.Count())

	got := kb.Query(context.Background(), "project rubric", models.DocTypeProjectScoringRubric, 2)
	assert.Equal(t, sampleProjectRubric, got)

	// re-ingesting the same files replaces rather than duplicates
	_, err = NewIngester(kb, ragConfig()).IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 4, kb.Count())
}

func TestBaseID(t *testing.T) {
	assert.Equal(t, "ground_truth_job_description_job_description", BaseID(models.DocTypeJobDescription, "job_description.txt"))
	assert.Equal(t, "ground_truth_scoring_rubric_backend_rubric_v2", BaseID(models.DocTypeScoringRubric, "/docs/Backend Rubric v2.pdf"))
}

func TestSampleDocs(t *testing.T) {
	assert.Len(t, SampleDocs(config.RubricLayoutUnified), 3)
	assert.Contains(t, SampleDocs(config.RubricLayoutUnified), "scoring_rubric.txt")
	assert.Len(t, SampleDocs(config.RubricLayoutSplit), 4)
}
