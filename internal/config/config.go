package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	RubricLayoutUnified = "unified"
	RubricLayoutSplit   = "split"
)

type Config struct {
	LogLevel string         `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	LogJSON  bool           `yaml:"log_json"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      LLMConfig      `yaml:"llm"`
}

type ServerConfig struct {
	Addr              string `yaml:"addr" validate:"required"`
	UploadDir         string `yaml:"upload_dir" validate:"required"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs" validate:"gte=1"`
	MaxUploadMB       int64  `yaml:"max_upload_mb" validate:"gte=1"`
}

type DatabaseConfig struct {
	// memory keeps jobs in process; pgdriver, pq and pgx select a postgres driver
	Driver string `yaml:"driver" validate:"oneof=memory pgdriver pq pgx"`
	DSN    string `yaml:"dsn" validate:"required_unless=Driver memory"`
	Debug  bool   `yaml:"debug"`
}

type RAGConfig struct {
	DBPath        string `yaml:"db_path"`
	Collection    string `yaml:"collection" validate:"required"`
	InMemory      bool   `yaml:"in_memory"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key" validate:"omitempty,len=32"`
	ChunkSize     int    `yaml:"chunk_size" validate:"gte=1"`
	ChunkOverlap  int    `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	TopK          int    `yaml:"top_k" validate:"gte=1"`
	SourceDir     string `yaml:"source_dir"`
	RubricLayout  string `yaml:"rubric_layout" validate:"oneof=unified split"`
}

type LLMConfig struct {
	// googleai, openai and ollama go through langchaingo, genai uses the Google GenAI SDK.
	// hash is an offline embedder and is only valid for embed_llm.
	Provider    string        `yaml:"provider" validate:"oneof=googleai openai ollama genai hash"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model" validate:"required"`
	Key         string        `yaml:"key"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	TopP        float64       `yaml:"top_p" validate:"gte=0,lte=1"`
	TopK        int           `yaml:"top_k" validate:"gte=0"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1"`
	RetryDelay  time.Duration `yaml:"retry_delay" validate:"gte=0"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:              ":8080",
			UploadDir:         "uploads",
			MaxConcurrentJobs: 4,
			MaxUploadMB:       20,
		},
		Database: DatabaseConfig{Driver: "memory"},
		RAG: RAGConfig{
			DBPath:       "chroma_db",
			Collection:   "job_screening_docs",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			TopK:         2,
			SourceDir:    "ground_truth_docs",
			RubricLayout: RubricLayoutUnified,
		},
		EmbedLLM: LLMConfig{
			Provider:    "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "nomic-embed-text",
			MaxAttempts: 1,
		},
		LLM: LLMConfig{
			Provider:    "googleai",
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			TopP:        0.95,
			TopK:        40,
			MaxAttempts: 3,
			RetryDelay:  5 * time.Second,
		},
	}
}

// LoadConfig reads the YAML file at path over the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := firstEnv("LLM_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"); v != "" {
		c.LLM.Key = v
	}
	if v := firstEnv("EMBED_API_KEY"); v != "" {
		c.EmbedLLM.Key = v
	}
	if v := firstEnv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
		if c.Database.Driver == "memory" {
			c.Database.Driver = "pgdriver"
		}
	}
	if v := firstEnv("CHROMEM_ENCRYPTION_KEY"); v != "" {
		c.RAG.EncryptionKey = v
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.LLM.Provider == "hash" {
		return fmt.Errorf("config error: llm.provider %q cannot generate text", c.LLM.Provider)
	}
	if c.EmbedLLM.Provider == "genai" {
		return fmt.Errorf("config error: embed_llm.provider %q is not supported", c.EmbedLLM.Provider)
	}
	if !c.RAG.InMemory && c.RAG.DBPath == "" {
		return fmt.Errorf("config error: rag.db_path is required for a persistent store")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
