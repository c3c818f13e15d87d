package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"candidate-screening/internal/chromemdb"
	"candidate-screening/internal/config"
	"candidate-screening/internal/embedding"
	"candidate-screening/internal/helper"
	"candidate-screening/internal/llmservice"
	"candidate-screening/internal/rag"
)

func openKnowledgeBase(ctx context.Context, cfg *config.Config) (*chromemdb.VectorDBManager, error) {
	if cfg.RAG.DBPath != "" {
		if err := helper.CreateFolder(cfg.RAG.DBPath); err != nil {
			return nil, err
		}
	}
	embed, err := embedding.NewEmbeddingFunc(ctx, &cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("error initializing embedder: %w", err)
	}
	kb, err := chromemdb.NewVectorDBManager(&cfg.RAG, embed)
	if err != nil {
		return nil, fmt.Errorf("error opening knowledge base: %w", err)
	}

	// an in-memory store starts from the last snapshot written by ingest
	if cfg.RAG.InMemory && cfg.RAG.EncryptionKey != "" {
		snapshot := filepath.Join(cfg.RAG.DBPath, cfg.RAG.Collection+".chromem")
		if _, err := os.Stat(snapshot); err == nil {
			if err := kb.Import(snapshot); err != nil {
				return nil, err
			}
		}
	}
	return kb, nil
}

func newEvaluator(ctx context.Context, cfg *config.Config, kb *chromemdb.VectorDBManager) (*rag.Evaluator, error) {
	llm, err := llmservice.New(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("error initializing generation client: %w", err)
	}
	return rag.NewEvaluator(kb, llm, &cfg.RAG), nil
}
