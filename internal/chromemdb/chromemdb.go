package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"candidate-screening/internal/config"
	"candidate-screening/internal/models"
)

var (
	// ErrRetrievalUnavailable marks a failed index or embedding call.
	ErrRetrievalUnavailable = errors.New("knowledge base retrieval unavailable")
	// ErrMissingDocumentType marks a query whose doc type has no chunks.
	ErrMissingDocumentType = errors.New("no knowledge chunks for document type")
)

// RetrievalError wraps an index or embedding failure for one doc type.
type RetrievalError struct {
	DocType string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s context: %v", e.DocType, e.Err)
}

func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalUnavailable, e.Err}
}

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	embed          chromem.EmbeddingFunc
	collectionName string
	compress       bool
	encryptionKey  string
	filePath       string
}

// NewVectorDBManager opens (or creates) the knowledge base collection.
// Documents are embedded with embed, which must not change for the lifetime
// of the collection.
func NewVectorDBManager(cfg *config.RAGConfig, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	if embed == nil {
		return nil, errors.New("embedding function is required")
	}

	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.DBPath, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		embed:          embed,
		collectionName: cfg.Collection,
		compress:       cfg.Compress,
		encryptionKey:  cfg.EncryptionKey,
		filePath:       filepath.Join(cfg.DBPath, cfg.Collection+".chromem"),
	}
	if _, err := m.getOrCreateCollection(); err != nil {
		return nil, err
	}

	log.Info().
		Str("collection", cfg.Collection).
		Bool("in_memory", cfg.InMemory).
		Int("chunks", m.Count()).
		Msg("Knowledge base loaded")
	return m, nil
}

// create or read collection
func (m *VectorDBManager) getOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, map[string]string{"distance": "cosine"}, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Ingest adds chunks to the collection under ids baseID_1..baseID_n.
// Re-ingesting with the same baseID overwrites the previous chunks.
func (m *VectorDBManager) Ingest(ctx context.Context, chunks []models.ChunkInput, baseID string) error {
	if len(chunks) == 0 {
		log.Warn().Str("base_id", baseID).Msg("No chunks to ingest")
		return nil
	}
	if strings.TrimSpace(baseID) == "" {
		return errors.New("base id is required")
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			log.Debug().Str("base_id", baseID).Int("chunk", i+1).Msg("Skipping empty chunk")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s_%d", baseID, i+1),
			Content: text,
			Metadata: map[string]string{
				models.MetaDocType: chunk.DocType,
				models.MetaSource:  chunk.SourceFile,
			},
		})
	}
	if len(docs) == 0 {
		log.Warn().Str("base_id", baseID).Msg("All chunks were empty, nothing ingested")
		return nil
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents for %s: %w", baseID, err)
	}
	log.Info().Str("base_id", baseID).Int("chunks", len(docs)).Msg("Ingested document")
	return nil
}

// Retrieve returns up to q.K chunks of q.DocType ordered by descending cosine
// similarity to q.Text.
func (m *VectorDBManager) Retrieve(ctx context.Context, q models.RetrievalQuery) ([]models.RetrievedChunk, error) {
	if q.DocType == "" {
		return nil, errors.New("doc type filter is required")
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, &RetrievalError{DocType: q.DocType, Err: errors.New("query text is empty")}
	}

	k := q.K
	if k <= 0 {
		k = 1
	}
	// chromem rejects nResults larger than the whole collection
	total := m.collection.Count()
	if total == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocumentType, q.DocType)
	}
	k = min(k, total)

	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryText: q.Text,
		NResults:  k,
		Where:     map[string]string{models.MetaDocType: q.DocType},
	})
	if err != nil {
		return nil, &RetrievalError{DocType: q.DocType, Err: err}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocumentType, q.DocType)
	}

	chunks := make([]models.RetrievedChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, models.RetrievedChunk{
			KnowledgeChunk: toKnowledgeChunk(r.ID, r.Content, r.Metadata),
			Similarity:     r.Similarity,
		})
	}
	return chunks, nil
}

// Query returns the texts of the k chunks of docType most relevant to text,
// joined by models.ContextSeparator. Any failure yields
// models.NoContextSentinel instead of an error.
func (m *VectorDBManager) Query(ctx context.Context, text, docType string, k int) string {
	chunks, err := m.Retrieve(ctx, models.RetrievalQuery{Text: text, DocType: docType, K: k})
	if err != nil {
		if errors.Is(err, ErrMissingDocumentType) {
			log.Warn().Str("doc_type", docType).Msg("No chunks ingested for doc type, using empty context")
		} else {
			log.Error().Err(err).Str("doc_type", docType).Msg("Failed to query knowledge base")
		}
		return models.NoContextSentinel
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	log.Info().Str("doc_type", docType).Int("chunks", len(chunks)).Msg("Query successful, retrieved context")
	return strings.Join(texts, models.ContextSeparator)
}

// Count returns the number of chunks in the collection.
func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// CountByDocType returns how many chunks carry docType.
func (m *VectorDBManager) CountByDocType(ctx context.Context, docType string) (int, error) {
	chunks, err := m.listWhere(ctx, docType, map[string]string{models.MetaDocType: docType})
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// ListBySource returns every chunk ingested from the given source file.
func (m *VectorDBManager) ListBySource(ctx context.Context, source string) ([]models.KnowledgeChunk, error) {
	return m.listWhere(ctx, source, map[string]string{models.MetaSource: source})
}

// GetByIDs returns the chunks with the given ids, skipping unknown ids.
func (m *VectorDBManager) GetByIDs(ctx context.Context, ids ...string) ([]models.KnowledgeChunk, error) {
	var chunks []models.KnowledgeChunk
	for _, id := range ids {
		doc, err := m.collection.GetByID(ctx, id)
		if err != nil {
			log.Debug().Err(err).Str("id", id).Msg("Chunk not found")
			continue
		}
		chunks = append(chunks, toKnowledgeChunk(doc.ID, doc.Content, doc.Metadata))
	}
	return chunks, nil
}

// listWhere uses a full-size similarity query as a metadata scan; chromem has
// no plain listing API. probe only has to be embeddable.
func (m *VectorDBManager) listWhere(ctx context.Context, probe string, where map[string]string) ([]models.KnowledgeChunk, error) {
	total := m.collection.Count()
	if total == 0 {
		return nil, nil
	}
	if strings.TrimSpace(probe) == "" {
		return nil, errors.New("filter value is required")
	}
	results, err := m.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryText: strings.ReplaceAll(probe, "_", " "),
		NResults:  total,
		Where:     where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	chunks := make([]models.KnowledgeChunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, toKnowledgeChunk(r.ID, r.Content, r.Metadata))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ID < chunks[j].ID })
	return chunks, nil
}

// Reset drops every chunk by recreating the collection.
func (m *VectorDBManager) Reset() error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := m.getOrCreateCollection(); err != nil {
		return err
	}
	log.Info().Str("collection", m.collectionName).Msg("Knowledge base reset")
	return nil
}

// Export writes an encrypted snapshot of the collection to path (the default
// path sits next to the persistent store when path is empty).
func (m *VectorDBManager) Export(path string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if path == "" {
		path = m.filePath
	}
	log.Debug().Str("collection", m.collectionName).Str("file", path).Bool("compress", m.compress).Msg("Exporting collection")
	if err := m.db.ExportToFile(path, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads an encrypted snapshot written by Export.
func (m *VectorDBManager) Import(path string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if path == "" {
		path = m.filePath
	}
	if err := m.db.ImportFromFile(path, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	// imported collections come back without an embedding function
	if _, err := m.getOrCreateCollection(); err != nil {
		return err
	}
	log.Info().Str("file", path).Int("chunks", m.Count()).Msg("Imported collection")
	return nil
}

func toKnowledgeChunk(id, content string, meta map[string]string) models.KnowledgeChunk {
	return models.KnowledgeChunk{
		ID:         id,
		Text:       content,
		DocType:    meta[models.MetaDocType],
		SourceFile: meta[models.MetaSource],
	}
}
