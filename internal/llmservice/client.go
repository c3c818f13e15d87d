package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"candidate-screening/internal/config"
	"candidate-screening/internal/helper"
)

var (
	// ErrGenerationExhausted is matched by errors returned once every attempt failed.
	ErrGenerationExhausted = errors.New("generation attempts exhausted")
	errEmptyResponse       = errors.New("model returned an empty response")
)

// sleep waits d or until ctx is done. Tests replace it to record delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GenerationExhaustedError reports the last failure after all attempts.
type GenerationExhaustedError struct {
	Attempts int
	Err      error
}

func (e *GenerationExhaustedError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationExhaustedError) Unwrap() []error {
	return []error{ErrGenerationExhausted, e.Err}
}

// Sampling holds the generation parameters sent with every call.
type Sampling struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// Completer performs a single prompt-to-text call against a model backend.
type Completer interface {
	Complete(ctx context.Context, prompt string, s Sampling) (string, error)
}

// Client sends prompts to a model with a fixed number of attempts and a fixed
// delay between them. It is safe for concurrent use when its Completer is.
type Client struct {
	completer   Completer
	sampling    Sampling
	maxAttempts int
	retryDelay  time.Duration
}

// New builds a Client for the configured provider.
func New(ctx context.Context, cfg *config.LLMConfig) (*Client, error) {
	var completer Completer
	var err error
	switch cfg.Provider {
	case "genai":
		completer, err = newGenAICompleter(ctx, cfg)
	default:
		completer, err = newLangchainCompleter(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("Generation client ready")
	return NewClient(completer, cfg), nil
}

// NewClient wraps completer with the retry and sampling settings of cfg.
func NewClient(completer Completer, cfg *config.LLMConfig) *Client {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		completer: completer,
		sampling: Sampling{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			TopK:        cfg.TopK,
			MaxTokens:   cfg.MaxTokens,
		},
		maxAttempts: attempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// Generate returns the model's text for prompt. An empty response counts as
// a failed attempt; no delay follows the final attempt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.completer.Complete(ctx, prompt, c.sampling)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errEmptyResponse
		}
		if err == nil {
			log.Debug().
				Int("attempt", attempt).
				Str("response", helper.TruncateForLog(text, 200)).
				Msg("Model response received")
			return text, nil
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", c.maxAttempts).Msg("Model call failed")
		if attempt == c.maxAttempts {
			break
		}
		if werr := sleep(ctx, c.retryDelay); werr != nil {
			return "", &GenerationExhaustedError{Attempts: attempt, Err: errors.Join(lastErr, werr)}
		}
	}
	return "", &GenerationExhaustedError{Attempts: c.maxAttempts, Err: lastErr}
}
