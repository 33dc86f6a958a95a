package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"i18n-refactor/internal/translation"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory and $HOME.
const FileName = ".i18n-refactor"

type Config struct {
	Extract   ExtractConfig             `mapstructure:"extract"`
	Translate TranslateConfig           `mapstructure:"translate"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Storage   StorageConfig             `mapstructure:"storage"`
}

type ExtractConfig struct {
	Pattern          string   `mapstructure:"pattern"`
	ExcludeDirs      []string `mapstructure:"exclude_dirs"`
	ExcludeDicts     []string `mapstructure:"exclude_dicts"`
	Functions        []string `mapstructure:"functions"`
	MinBytes         int      `mapstructure:"min_bytes"`
	ContextLines     int      `mapstructure:"context_lines"`
	SplitThreshold   int      `mapstructure:"split_threshold"`
	Workers          int      `mapstructure:"workers"`
	RespectGitignore bool     `mapstructure:"respect_gitignore"`
}

type TranslateConfig struct {
	Languages     []string `mapstructure:"languages"`
	Summary       string   `mapstructure:"summary"`
	MaxConcurrent int      `mapstructure:"max_concurrent"`
	RPS           float64  `mapstructure:"rps"`
	Burst         int      `mapstructure:"burst"`
	CacheSize     int      `mapstructure:"cache_size"`
	MemoryTopK    int      `mapstructure:"memory_top_k"`
	MemoryScore   float64  `mapstructure:"memory_min_score"`
}

// ProviderConfig holds the settings of one provider. Pointer fields stay nil
// when the value is not configured anywhere.
type ProviderConfig struct {
	Model         string   `mapstructure:"model"`
	APIKey        string   `mapstructure:"api_key"`
	APIBase       string   `mapstructure:"api_base"`
	Organization  string   `mapstructure:"organization"`
	Temperature   *float64 `mapstructure:"temperature"`
	MaxTokens     int      `mapstructure:"max_tokens"`
	TopP          *float64 `mapstructure:"top_p"`
	TopK          int      `mapstructure:"top_k"`
	NumCtx        int      `mapstructure:"num_ctx"`
	RepeatPenalty *float64 `mapstructure:"repeat_penalty"`
	BatchSize     int      `mapstructure:"batch_size"`
}

type StorageConfig struct {
	DatabaseURL         string `mapstructure:"database_url"`
	Neo4jURI            string `mapstructure:"neo4j_uri"`
	Neo4jUser           string `mapstructure:"neo4j_user"`
	Neo4jPassword       string `mapstructure:"neo4j_password"`
	EmbeddingAPIBase    string `mapstructure:"embedding_api_base"`
	EmbeddingAPIKey     string `mapstructure:"embedding_api_key"`
	EmbeddingModel      string `mapstructure:"embedding_model"`
	EmbeddingDimensions int    `mapstructure:"embedding_dimensions"`
}

// MemoryEnabled reports whether the translation memory can be used.
func (s StorageConfig) MemoryEnabled() bool {
	return s.DatabaseURL != "" && s.EmbeddingAPIBase != ""
}

// DefaultBatchSize is the number of strings sent in one prompt.
const DefaultBatchSize = 10

var envBindings = map[string]string{
	"extract.workers":              "WORKER_COUNT",
	"translate.max_concurrent":     "MAX_CONCURRENT_API_CALLS",
	"translate.rps":                "LLM_RPS",
	"translate.burst":              "LLM_BURST",
	"storage.database_url":         "DATABASE_URL",
	"storage.neo4j_uri":            "NEO4J_URI",
	"storage.neo4j_user":           "NEO4J_USER",
	"storage.neo4j_password":       "NEO4J_PASSWORD",
	"storage.embedding_api_base":   "EMBEDDING_API_BASE",
	"storage.embedding_api_key":    "EMBEDDING_API_KEY",
	"storage.embedding_model":      "EMBEDDING_MODEL",
	"storage.embedding_dimensions": "EMBEDDING_DIMENSIONS",
}

// Load reads .env, the optional config file and the environment. An explicit
// path must exist; the default lookup tolerates a missing file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extract.pattern", "**/*.php")
	v.SetDefault("extract.min_bytes", 2)
	v.SetDefault("extract.context_lines", 2)
	v.SetDefault("extract.split_threshold", 0)
	v.SetDefault("extract.workers", 8)
	v.SetDefault("extract.respect_gitignore", true)

	v.SetDefault("translate.max_concurrent", 5)
	v.SetDefault("translate.rps", 0)
	v.SetDefault("translate.burst", 1)
	v.SetDefault("translate.cache_size", 10000)
	v.SetDefault("translate.memory_top_k", 3)

	v.SetDefault("storage.neo4j_user", "neo4j")
	v.SetDefault("storage.embedding_model", "text-embedding-3-small")
	v.SetDefault("storage.embedding_dimensions", 1024)
}

func (c *Config) Validate() error {
	if c.Extract.MinBytes < 0 {
		return fmt.Errorf("extract.min_bytes must not be negative")
	}
	if c.Extract.ContextLines < 0 {
		return fmt.Errorf("extract.context_lines must not be negative")
	}
	if c.Extract.SplitThreshold < 0 {
		return fmt.Errorf("extract.split_threshold must not be negative")
	}
	if c.Storage.EmbeddingDimensions <= 0 {
		return fmt.Errorf("storage.embedding_dimensions must be positive")
	}
	return nil
}

// Provider returns the configuration of the named provider with its
// environment variables applied over the config file values.
func (c *Config) Provider(name string) ProviderConfig {
	name = canonical(name)
	p := c.Providers[name]
	prefix := envPrefix(name)

	p.Model = getEnv(prefix+"_MODEL", p.Model)
	p.APIKey = getEnv(prefix+"_API_KEY", p.APIKey)
	p.APIBase = getEnv(prefix+"_API_BASE", p.APIBase)
	p.Organization = getEnv(prefix+"_ORGANIZATION", p.Organization)
	p.Temperature = getEnvFloat(prefix+"_TEMPERATURE", p.Temperature)
	p.MaxTokens = getEnvInt(prefix+"_MAX_TOKENS", p.MaxTokens)
	p.TopP = getEnvFloat(prefix+"_TOP_P", p.TopP)
	p.TopK = getEnvInt(prefix+"_TOP_K", p.TopK)
	p.NumCtx = getEnvInt(prefix+"_NUM_CTX", p.NumCtx)
	p.RepeatPenalty = getEnvFloat(prefix+"_REPEAT_PENALTY", p.RepeatPenalty)
	p.BatchSize = getEnvInt(prefix+"_BATCH_SIZE", p.BatchSize)

	switch name {
	case "gemini":
		if p.APIKey == "" {
			p.APIKey = getEnv("GOOGLE_API_KEY", "")
		}
	case "ollama":
		p.APIBase = getEnv("OLLAMA_HOST", p.APIBase)
	}

	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	return p
}

// Settings converts p into provider settings.
func (p ProviderConfig) Settings() translation.Settings {
	return translation.Settings{
		Model:         p.Model,
		APIKey:        p.APIKey,
		APIBase:       p.APIBase,
		Organization:  p.Organization,
		Temperature:   p.Temperature,
		MaxTokens:     p.MaxTokens,
		TopP:          p.TopP,
		TopK:          p.TopK,
		NumCtx:        p.NumCtx,
		RepeatPenalty: p.RepeatPenalty,
	}
}

func canonical(name string) string {
	name = strings.ToLower(name)
	if name == "claude" {
		return "anthropic"
	}
	return name
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-integer environment variable")
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback *float64) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric environment variable")
		return fallback
	}
	return &f
}
