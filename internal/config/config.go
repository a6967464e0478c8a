package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the propmatch configuration shared by the API and the CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Match     MatchConfig     `yaml:"match"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider and model settings.
type EmbeddingConfig struct {
	Provider            string  `yaml:"provider"` // label for metrics and logs
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	Dimensions          int     `yaml:"dimensions"` // 0 = model default
	DocumentInstruction string  `yaml:"document_instruction"`
	QueryInstruction    string  `yaml:"query_instruction"`
	TimeoutSec          int     `yaml:"timeout_sec"`
	RateLimitRPS        float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst      int     `yaml:"rate_limit_burst"`
}

// CorpusConfig holds settings for the vectorized proposal collection.
type CorpusConfig struct {
	Path              string `yaml:"path"`
	SourcePath        string `yaml:"source_path"` // input of the vectorize command
	AllowEmpty        bool   `yaml:"allow_empty"`
	ReloadIntervalSec int    `yaml:"reload_interval_sec"` // 0 = no hot reload
	MinTextLength     int    `yaml:"min_text_length"`     // vectorize: skip shorter texts
}

// MatchConfig holds ranking defaults for each surface.
type MatchConfig struct {
	Threshold    float64 `yaml:"threshold"`
	CLIThreshold float64 `yaml:"cli_threshold"`
	TopK         int     `yaml:"top_k"`
	CLITopK      int     `yaml:"cli_top_k"` // 0 = list every match
	Precision    int     `yaml:"precision"`
	TagsMode     string  `yaml:"tags_mode"` // split (default) | raw
}

// CacheConfig holds the optional embedding cache backend.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // "" (disabled), redis, valkey
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether an embedding cache backend is configured.
func (c CacheConfig) Enabled() bool { return c.Driver != "" }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is applied to the process environment first.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one YAML config file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv sets variables from a dotenv file without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.RateLimitRPS > 0 && c.Embedding.RateLimitBurst <= 0 {
		c.Embedding.RateLimitBurst = 1
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "vectorized_proposals.json"
	}
	if c.Corpus.SourcePath == "" {
		c.Corpus.SourcePath = "proposals.json"
	}
	if c.Match.Threshold == 0 {
		c.Match.Threshold = 0.35
	}
	if c.Match.CLIThreshold == 0 {
		c.Match.CLIThreshold = 0.65
	}
	if c.Match.TopK == 0 {
		c.Match.TopK = 3
	}
	if c.Match.Precision == 0 {
		c.Match.Precision = 3
	}
	if c.Match.TagsMode == "" {
		c.Match.TagsMode = "split"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RateLimitRPS < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must not be negative, got %v", c.Embedding.RateLimitRPS)
	}
	if c.Corpus.ReloadIntervalSec < 0 {
		return fmt.Errorf("corpus.reload_interval_sec must not be negative, got %d", c.Corpus.ReloadIntervalSec)
	}
	if c.Match.Threshold < 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("match.threshold must be between 0 and 1, got %v", c.Match.Threshold)
	}
	if c.Match.CLIThreshold < 0 || c.Match.CLIThreshold > 1 {
		return fmt.Errorf("match.cli_threshold must be between 0 and 1, got %v", c.Match.CLIThreshold)
	}
	if c.Match.TopK <= 0 {
		return fmt.Errorf("match.top_k must be positive, got %d", c.Match.TopK)
	}
	if c.Match.CLITopK < 0 {
		return fmt.Errorf("match.cli_top_k must not be negative, got %d", c.Match.CLITopK)
	}
	if c.Match.Precision != 3 && c.Match.Precision != 4 {
		return fmt.Errorf("match.precision must be 3 or 4, got %d", c.Match.Precision)
	}
	switch c.Match.TagsMode {
	case "split", "raw":
		// ok
	default:
		return fmt.Errorf("match.tags_mode must be \"split\" or \"raw\", got %q", c.Match.TagsMode)
	}
	switch c.Cache.Driver {
	case "":
		// disabled
	case "redis", "valkey":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required when cache.driver is %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be \"redis\" or \"valkey\", got %q", c.Cache.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
