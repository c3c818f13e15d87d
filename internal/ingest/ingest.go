// Package ingest loads reference documents into the knowledge base.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"candidate-screening/internal/config"
	"candidate-screening/internal/models"
	"candidate-screening/internal/parser"
)

// Store receives the chunks of one document at a time.
type Store interface {
	Ingest(ctx context.Context, chunks []models.ChunkInput, baseID string) error
}

// Report summarises an ingestion run.
type Report struct {
	Documents int            `json:"documents"`
	Chunks    int            `json:"chunks"`
	ByDocType map[string]int `json:"by_doc_type"`
	Skipped   []string       `json:"skipped,omitempty"`
}

type Ingester struct {
	store        Store
	chunkSize    int
	chunkOverlap int
}

func NewIngester(store Store, cfg *config.RAGConfig) *Ingester {
	return &Ingester{store: store, chunkSize: cfg.ChunkSize, chunkOverlap: cfg.ChunkOverlap}
}

// IngestDir ingests every regular file directly inside dir. Each file is
// classified by name, chunked and stored under ground_truth_<doctype>_<stem>.
func (i *Ingester) IngestDir(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name() < entries[b].Name() })

	report := &Report{ByDocType: map[string]int{}}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		n, docType, err := i.IngestFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return report, err
		}
		if n == 0 {
			report.Skipped = append(report.Skipped, entry.Name())
			continue
		}
		report.Documents++
		report.Chunks += n
		report.ByDocType[docType] += n
	}

	log.Info().
		Str("dir", dir).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Msg("Ground truth ingestion complete")
	return report, nil
}

// IngestFile ingests one reference document and returns the number of chunks
// stored. Documents without extractable text are skipped.
func (i *Ingester) IngestFile(ctx context.Context, path string) (int, string, error) {
	name := filepath.Base(path)
	docType := parser.ClassifyDocType(name)

	content, err := parser.Extract(path)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Skipping document")
		return 0, docType, nil
	}
	texts := parser.ChunkText(content, i.chunkSize, i.chunkOverlap)
	if len(texts) == 0 {
		log.Warn().Str("file", name).Msg("Document has no text, skipping")
		return 0, docType, nil
	}

	chunks := make([]models.ChunkInput, len(texts))
	for n, t := range texts {
		chunks[n] = models.ChunkInput{Text: t, DocType: docType, SourceFile: name}
	}

	baseID := BaseID(docType, name)
	if err := i.store.Ingest(ctx, chunks, baseID); err != nil {
		return 0, docType, fmt.Errorf("ingest %s: %w", name, err)
	}
	log.Info().Str("file", name).Str("doc_type", docType).Int("chunks", len(chunks)).Msg("Ingested reference document")
	return len(chunks), docType, nil
}

// BaseID is the chunk id prefix for a reference document.
func BaseID(docType, filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.Join(strings.Fields(strings.ToLower(stem)), "_")
	return fmt.Sprintf("ground_truth_%s_%s", docType, stem)
}
