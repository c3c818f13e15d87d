package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"

	"candidate-screening/internal/config"
)

// langchainCompleter calls any langchaingo chat model.
type langchainCompleter struct {
	model llms.Model
}

func newLangchainCompleter(ctx context.Context, cfg *config.LLMConfig) (*langchainCompleter, error) {
	var model llms.Model
	var err error

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	case "googleai":
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(cfg.Key),
			googleai.WithDefaultModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.Provider, err)
	}
	return &langchainCompleter{model: model}, nil
}

func (c *langchainCompleter) Complete(ctx context.Context, prompt string, s Sampling) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(s.Temperature)}
	if s.TopP > 0 {
		opts = append(opts, llms.WithTopP(s.TopP))
	}
	if s.TopK > 0 {
		opts = append(opts, llms.WithTopK(s.TopK))
	}
	if s.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.MaxTokens))
	}
	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
}

// genaiCompleter talks to the Gemini API through the Google GenAI SDK.
type genaiCompleter struct {
	client *genai.Client
	model  string
}

func newGenAICompleter(ctx context.Context, cfg *config.LLMConfig) (*genaiCompleter, error) {
	apiKey := strings.TrimSpace(cfg.Key)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &genaiCompleter{client: client, model: cfg.Model}, nil
}

func (c *genaiCompleter) Complete(ctx context.Context, prompt string, s Sampling) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(s.Temperature)),
	}
	if s.TopP > 0 {
		gc.TopP = genai.Ptr(float32(s.TopP))
	}
	if s.TopK > 0 {
		gc.TopK = genai.Ptr(float32(s.TopK))
	}
	if s.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(s.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" || part.Thought {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}
	return builder.String(), nil
}
