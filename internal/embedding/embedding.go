package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"candidate-screening/internal/config"
)

const defaultHashDimensions = 256

// NewEmbeddingFunc builds the text-to-vector function used by the knowledge
// base. The function must stay the same for the lifetime of a collection.
func NewEmbeddingFunc(ctx context.Context, cfg *config.LLMConfig) (chromem.EmbeddingFunc, error) {
	log.Debug().
		Str("provider", cfg.Provider).
		Str("base_url", cfg.BaseURL).
		Str("embedding_model", cfg.Model).
		Msg("Initializing embedder")

	if cfg.Provider == "hash" {
		return NewHashEmbeddingFunc(defaultHashDimensions), nil
	}

	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return FromEmbedder(embedder), nil
}

// NewEmbedder creates a langchaingo embedder for the configured provider.
func NewEmbedder(ctx context.Context, cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	var client embeddings.EmbedderClient
	var err error

	switch cfg.Provider {
	case "ollama":
		client, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "openai":
		client, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		)
	case "googleai":
		client, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.Key),
			googleai.WithDefaultEmbeddingModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s embedding client: %w", cfg.Provider, err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// FromEmbedder adapts a langchaingo embedder to chromem's embedding function.
func FromEmbedder(embedder embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text: %w", err)
		}
		if len(vec) == 0 {
			return nil, errors.New("embedder returned an empty vector")
		}
		return vec, nil
	}
}

// NewHashEmbeddingFunc returns a deterministic bag-of-words embedding that
// hashes lower-cased word tokens into dims buckets. It needs no model server,
// so it serves offline runs and tests. Vectors are L2-normalized.
func NewHashEmbeddingFunc(dims int) chromem.EmbeddingFunc {
	if dims <= 0 {
		dims = defaultHashDimensions
	}
	return func(_ context.Context, text string) ([]float32, error) {
		tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(tokens) == 0 {
			return nil, errors.New("cannot embed text without words")
		}

		vec := make([]float32, dims)
		for _, tok := range tokens {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			vec[h.Sum32()%uint32(dims)]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
		return vec, nil
	}
}
