package common

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Retrieval   RetrievalConfig `toml:"retrieval"`
	Context     ContextConfig   `toml:"context"`
	Ingest      IngestConfig    `toml:"ingest"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration for vision and embeddings
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	Model          string  `toml:"model"`           // Vision-capable model (default: "gemini-2.0-flash")
	EmbedModel     string  `toml:"embed_model"`     // Embedding model (default: "gemini-embedding-001")
	EmbedDimension int     `toml:"embed_dimension"` // Embedding vector dimension (default: 768)
	MaxTokens      int     `toml:"max_tokens"`      // Maximum tokens in response (default: 4096)
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Minimum interval between API calls (default: "4s")
	Temperature    float32 `toml:"temperature"`     // Completion temperature (default: 0.1)
}

// ClaudeConfig contains Anthropic Claude API configuration for vision analysis
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Vision-capable model (default: "claude-sonnet-4-20250514")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between API calls (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.1)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the vision provider. Embeddings always come from Gemini
// since Claude has no embedding API; with Claude selected and no Gemini key,
// retrieval degrades to category-only.
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// RetrievalConfig bounds the hybrid code retrieval step
type RetrievalConfig struct {
	MaxSections      int `toml:"max_sections"`       // Cap on category-matched sections (default: 200)
	MaxArticles      int `toml:"max_articles"`       // Cap on category-matched full articles (default: 20)
	ChunkTopK        int `toml:"chunk_top_k"`        // Semantic search result count (default: 10)
	QueryPrefixLimit int `toml:"query_prefix_limit"` // Max chars of description sent to embedding (default: 1500)
}

// ContextConfig bounds the assembled model context
type ContextConfig struct {
	MaxSections   int `toml:"max_sections"`   // Sections included in context (default: 25)
	MaxArticles   int `toml:"max_articles"`   // Full articles included in context (default: 3)
	SectionBudget int `toml:"section_budget"` // Per-section character budget (default: 600)
	ArticleBudget int `toml:"article_budget"` // Per-article character budget (default: 1500)
}

// IngestConfig controls NEC corpus ingestion
type IngestConfig struct {
	CodeVersion      string `toml:"code_version"`       // NEC edition year (default: "2023")
	ChunkSize        int    `toml:"chunk_size"`         // Semantic chunk size in chars (default: 800)
	ChunkOverlap     int    `toml:"chunk_overlap"`      // Overlap between consecutive chunks (default: 100)
	SectionTextLimit int    `toml:"section_text_limit"` // Per-section text cap in chars (default: 2000)
	Embeddings       bool   `toml:"embeddings"`         // Generate chunk embeddings during ingest
	BackfillSchedule string `toml:"backfill_schedule"`  // Cron schedule for embedding backfill (default: "0 0 */6 * * *")
	BackfillLimit    int    `toml:"backfill_limit"`     // Max chunks embedded per backfill run (default: 200)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in necomply.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key
			Model:          "gemini-2.0-flash",
			EmbedModel:     "gemini-embedding-001",
			EmbedDimension: 768,
			MaxTokens:      4096,
			Timeout:        "2m",
			RateLimit:      "4s", // 15 RPM free tier
			Temperature:    0.1,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.1,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Retrieval: RetrievalConfig{
			MaxSections:      200,
			MaxArticles:      20,
			ChunkTopK:        10,
			QueryPrefixLimit: 1500,
		},
		Context: ContextConfig{
			MaxSections:   25,
			MaxArticles:   3,
			SectionBudget: 600,
			ArticleBudget: 1500,
		},
		Ingest: IngestConfig{
			CodeVersion:      "2023",
			ChunkSize:        800,
			ChunkOverlap:     100,
			SectionTextLimit: 2000,
			Embeddings:       false,
			BackfillSchedule: "0 0 */6 * * *", // Every 6 hours
			BackfillLimit:    200,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NECOMPLY_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("NECOMPLY_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NECOMPLY_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("NECOMPLY_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("NECOMPLY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// API keys (GEMINI_API_KEY / ANTHROPIC_API_KEY are the SDK-conventional names)
	if key := os.Getenv("NECOMPLY_GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = key
	}
	if key := os.Getenv("NECOMPLY_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = key
	}

	if provider := os.Getenv("NECOMPLY_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	if version := os.Getenv("NECOMPLY_CODE_VERSION"); version != "" {
		config.Ingest.CodeVersion = version
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
