package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Research    ResearchConfig  `toml:"research"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	LLM         LLMConfig       `toml:"llm"`
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
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ResearchConfig controls article gathering and processing behavior
type ResearchConfig struct {
	NewsAPIKey        string        `toml:"newsapi_key"`        // NewsAPI key; mock articles are returned when empty
	WikipediaEnabled  bool          `toml:"wikipedia_enabled"`  // Query the Wikipedia source during Gather
	NewsEnabled       bool          `toml:"news_enabled"`       // Query the news source during Gather
	HackerNewsEnabled bool          `toml:"hackernews_enabled"` // Query the HackerNews source during Gather
	FallbackResults   int           `toml:"fallback_results"`   // Result count requested from the web-search fallback
	TopArticles       int           `toml:"top_articles"`       // Articles selected for processing per run
	TopKeywords       int           `toml:"top_keywords"`       // Aggregate keywords reported per run
	RequestTimeout    time.Duration `toml:"request_timeout"`    // HTTP timeout for source fetches
	RateLimit         int           `toml:"rate_limit"`         // Source requests per second
}

// SchedulerConfig controls concurrent job execution and retention
type SchedulerConfig struct {
	MaxConcurrentJobs int    `toml:"max_concurrent_jobs"` // Concurrent pipeline runs
	JobTimeout        string `toml:"job_timeout"`         // Wall-clock budget per run, duration string (e.g. "5m")
	RetentionSchedule string `toml:"retention_schedule"`  // Cron schedule for pruning terminal jobs
	RetentionAge      string `toml:"retention_age"`       // Terminal jobs older than this are pruned, duration string
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderHeuristic disables the AI backend; summaries and keywords
	// come from the extractive fallback only
	LLMProviderHeuristic LLMProvider = "heuristic"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	Provider LLMProvider  `toml:"provider"` // "claude", "gemini", or "heuristic"
	Claude   ClaudeConfig `toml:"claude"`
	Gemini   GeminiConfig `toml:"gemini"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for AI operations
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 1024)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in scrutor.toml.
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
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Research: ResearchConfig{
			WikipediaEnabled:  true,
			NewsEnabled:       true,
			HackerNewsEnabled: true,
			FallbackResults:   10,
			TopArticles:       5,
			TopKeywords:       10,
			RequestTimeout:    30 * time.Second,
			RateLimit:         5,
		},
		Scheduler: SchedulerConfig{
			MaxConcurrentJobs: 4,
			JobTimeout:        "5m",
			RetentionSchedule: "*/10 * * * *", // Every 10 minutes
			RetentionAge:      "1h",
		},
		LLM: LLMConfig{
			Provider: LLMProviderHeuristic,
			Claude: ClaudeConfig{
				Model:       "claude-haiku-3-5-20241022",
				MaxTokens:   1024,
				Timeout:     "2m",
				Temperature: 0.3,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.0-flash",
				Timeout:     "2m",
				Temperature: 0.3,
			},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files.
// Later files override earlier files; environment variables override all
// file values. Priority: CLI flags > env > last file > ... > first file > defaults.
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
	if env := os.Getenv("SCRUTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SCRUTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRUTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRUTOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SCRUTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SCRUTOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Research configuration
	if key := os.Getenv("SCRUTOR_NEWSAPI_KEY"); key != "" {
		config.Research.NewsAPIKey = key
	}
	if fallback := os.Getenv("SCRUTOR_RESEARCH_FALLBACK_RESULTS"); fallback != "" {
		if n, err := strconv.Atoi(fallback); err == nil && n > 0 {
			config.Research.FallbackResults = n
		}
	}
	if timeout := os.Getenv("SCRUTOR_RESEARCH_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Research.RequestTimeout = d
		}
	}

	// Scheduler configuration
	if maxJobs := os.Getenv("SCRUTOR_SCHEDULER_MAX_CONCURRENT_JOBS"); maxJobs != "" {
		if n, err := strconv.Atoi(maxJobs); err == nil && n > 0 {
			config.Scheduler.MaxConcurrentJobs = n
		}
	}
	if jobTimeout := os.Getenv("SCRUTOR_SCHEDULER_JOB_TIMEOUT"); jobTimeout != "" {
		if _, err := time.ParseDuration(jobTimeout); err == nil {
			config.Scheduler.JobTimeout = jobTimeout
		}
	}
	if schedule := os.Getenv("SCRUTOR_SCHEDULER_RETENTION_SCHEDULE"); schedule != "" {
		config.Scheduler.RetentionSchedule = schedule
	}
	if age := os.Getenv("SCRUTOR_SCHEDULER_RETENTION_AGE"); age != "" {
		if _, err := time.ParseDuration(age); err == nil {
			config.Scheduler.RetentionAge = age
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("SCRUTOR_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.LLM.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SCRUTOR_CLAUDE_API_KEY"); apiKey != "" {
		config.LLM.Claude.APIKey = apiKey // SCRUTOR_ prefix takes priority
	}
	if model := os.Getenv("SCRUTOR_CLAUDE_MODEL"); model != "" {
		config.LLM.Claude.Model = model
	}
	if apiKey := os.Getenv("SCRUTOR_GEMINI_API_KEY"); apiKey != "" {
		config.LLM.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SCRUTOR_GEMINI_MODEL"); model != "" {
		config.LLM.Gemini.Model = model
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
