package chromemdb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-screening/internal/config"
	"candidate-screening/internal/embedding"
	"candidate-screening/internal/models"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *VectorDBManager {
	t.Helper()
	cfg := &config.RAGConfig{
		DBPath:        t.TempDir(),
		Collection:    "test_docs",
		InMemory:      true,
		EncryptionKey: testKey,
	}
	m, err := NewVectorDBManager(cfg, embedding.NewHashEmbeddingFunc(128))
	require.NoError(t, err)
	return m
}

func seed(t *testing.T, m *VectorDBManager) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.Ingest(ctx, []models.ChunkInput{
		{Text: "Backend engineer with Go and Kubernetes experience", DocType: models.DocTypeJobDescription, SourceFile: "jd.pdf"},
		{Text: "Familiarity with vector databases and prompt design", DocType: models.DocTypeJobDescription, SourceFile: "jd.pdf"},
	}, "jd"))
	require.NoError(t, m.Ingest(ctx, []models.ChunkInput{
		{Text: "Technical skills weight 40 percent", DocType: models.DocTypeScoringRubric, SourceFile: "rubric.pdf"},
	}, "rubric"))
}

func TestIngest_AssignsSequentialIDs(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)

	assert.Equal(t, 3, m.Count())

	chunks, err := m.GetByIDs(context.Background(), "jd_1", "jd_2", "rubric_1", "missing_9")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "jd_1", chunks[0].ID)
	assert.Equal(t, models.DocTypeJobDescription, chunks[0].DocType)
	assert.Equal(t, "jd.pdf", chunks[0].SourceFile)
	assert.Equal(t, models.DocTypeScoringRubric, chunks[2].DocType)
}

func TestIngest_EmptyIsNoop(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Ingest(context.Background(), nil, "nothing"))
	require.NoError(t, m.Ingest(context.Background(), []models.ChunkInput{{Text: "   "}}, "blank"))
	assert.Equal(t, 0, m.Count())
}

func TestIngest_SameBaseIDOverwrites(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)
	seed(t, m)
	assert.Equal(t, 3, m.Count())
}

func TestRetrieve_RoundTrip(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)

	text := "Familiarity with vector databases and prompt design"
	chunks, err := m.Retrieve(context.Background(), models.RetrievalQuery{
		Text:    text,
		DocType: models.DocTypeJobDescription,
		K:       1,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.InDelta(t, 1.0, chunks[0].Similarity, 1e-4)
}

func TestRetrieve_FilterAndOrdering(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)

	chunks, err := m.Retrieve(context.Background(), models.RetrievalQuery{
		Text:    "Go Kubernetes backend",
		DocType: models.DocTypeJobDescription,
		K:       10,
	})
	require.NoError(t, err)
	// k is clamped to what exists and other doc types never leak in
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.Equal(t, models.DocTypeJobDescription, c.DocType)
	}
	assert.Equal(t, "jd_1", chunks[0].ID)
	assert.GreaterOrEqual(t, chunks[0].Similarity, chunks[1].Similarity)
}

func TestRetrieve_MissingDocType(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Retrieve(context.Background(), models.RetrievalQuery{Text: "anything", DocType: models.DocTypeCaseStudyBrief, K: 2})
	assert.ErrorIs(t, err, ErrMissingDocumentType)

	seed(t, m)
	_, err = m.Retrieve(context.Background(), models.RetrievalQuery{Text: "anything", DocType: models.DocTypeCaseStudyBrief, K: 2})
	assert.ErrorIs(t, err, ErrMissingDocumentType)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	failing := func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "boom") {
			return nil, errors.New("model server down")
		}
		return embedding.NewHashEmbeddingFunc(128)(ctx, text)
	}
	m, err := NewVectorDBManager(&config.RAGConfig{Collection: "fail_docs", InMemory: true}, failing)
	require.NoError(t, err)
	seed(t, m)

	_, err = m.Retrieve(context.Background(), models.RetrievalQuery{Text: "boom", DocType: models.DocTypeJobDescription, K: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, models.DocTypeJobDescription, rerr.DocType)

	assert.Equal(t, models.NoContextSentinel, m.Query(context.Background(), "boom", models.DocTypeJobDescription, 1))
}

func TestQuery_JoinsContext(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)

	got := m.Query(context.Background(), "backend engineer", models.DocTypeJobDescription, 2)
	parts := strings.Split(got, models.ContextSeparator)
	assert.Len(t, parts, 2)
	assert.NotEqual(t, models.NoContextSentinel, got)

	assert.Equal(t, models.NoContextSentinel, m.Query(context.Background(), "brief", models.DocTypeCaseStudyBrief, 2))
}

func TestQuery_Concurrent(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := m.Query(context.Background(), "technical skills", models.DocTypeScoringRubric, 1)
			assert.Equal(t, "Technical skills weight 40 percent", got)
		}()
	}
	wg.Wait()
}

func TestCountAndList(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	n, err := m.CountByDocType(ctx, models.DocTypeJobDescription)
	require.NoError(t, err)
	assert.Zero(t, n)

	seed(t, m)
	n, err = m.CountByDocType(ctx, models.DocTypeJobDescription)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	chunks, err := m.ListBySource(ctx, "rubric.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "rubric_1", chunks[0].ID)
}

func TestReset(t *testing.T) {
	m := newTestManager(t)
	seed(t, m)
	require.NoError(t, m.Reset())
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, models.NoContextSentinel, m.Query(context.Background(), "backend", models.DocTypeJobDescription, 1))
}

func TestExportImport(t *testing.T) {
	src := newTestManager(t)
	seed(t, src)
	path := filepath.Join(t.TempDir(), "snapshot.gob.enc")
	require.NoError(t, src.Export(path))

	dst := newTestManager(t)
	require.NoError(t, dst.Import(path))
	assert.Equal(t, 3, dst.Count())
	assert.Equal(t,
		"Technical skills weight 40 percent",
		dst.Query(context.Background(), "technical skills", models.DocTypeScoringRubric, 1),
	)
}

func TestExport_RequiresKey(t *testing.T) {
	m, err := NewVectorDBManager(&config.RAGConfig{Collection: "x", InMemory: true}, embedding.NewHashEmbeddingFunc(16))
	require.NoError(t, err)
	assert.ErrorContains(t, m.Export(filepath.Join(t.TempDir(), "x")), "encryption key")
	assert.ErrorContains(t, m.Import(filepath.Join(t.TempDir(), "x")), "encryption key")
}
