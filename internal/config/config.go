package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/agentdex/internal/domain"
)

// Config holds the agentdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Backfill  BackfillConfig  `yaml:"backfill"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey means
// no provider: the engine runs in text-fallback mode.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// MatchingConfig holds scorer weights and search limits.
type MatchingConfig struct {
	Weights       WeightsConfig `yaml:"weights"`
	DefaultLimit  int           `yaml:"default_limit"`
	MinSimilarity float64       `yaml:"min_similarity"`
}

// WeightsConfig holds the deterministic scorer weight overrides. Zero
// values fall back to the documented defaults at ApplyDefaults time, so a
// config can override a single weight without restating the rest.
type WeightsConfig struct {
	SkillMatch   int `yaml:"skill_match"`
	Category     int `yaml:"category"`
	SuccessRate  int `yaml:"success_rate"`
	Rating       int `yaml:"rating"`
	ResponseTime int `yaml:"response_time"`
	PriceMatch   int `yaml:"price_match"`
}

// BackfillConfig holds embedding backfill pacing settings.
type BackfillConfig struct {
	BatchSize int `yaml:"batch_size"`
	PauseMS   int `yaml:"pause_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = domain.EmbeddingDim
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}

	w := &c.Matching.Weights
	if w.SkillMatch <= 0 {
		w.SkillMatch = domain.DefaultSkillMatchWeight
	}
	if w.Category <= 0 {
		w.Category = domain.DefaultCategoryWeight
	}
	if w.SuccessRate <= 0 {
		w.SuccessRate = domain.DefaultSuccessRateWeight
	}
	if w.Rating <= 0 {
		w.Rating = domain.DefaultRatingWeight
	}
	if w.ResponseTime <= 0 {
		w.ResponseTime = domain.DefaultResponseTimeWeight
	}
	if w.PriceMatch <= 0 {
		w.PriceMatch = domain.DefaultPriceMatchWeight
	}
	if c.Matching.DefaultLimit <= 0 {
		c.Matching.DefaultLimit = 10
	}
	if c.Matching.MinSimilarity <= 0 {
		c.Matching.MinSimilarity = 0.3
	}

	if c.Backfill.BatchSize <= 0 {
		c.Backfill.BatchSize = 10
	}
	if c.Backfill.PauseMS <= 0 {
		c.Backfill.PauseMS = 1000
	}
}

// Weights converts the config weights to the validated domain type.
func (c *Config) Weights() (domain.Weights, error) {
	w := c.Matching.Weights
	return domain.NewWeights(w.SkillMatch, w.Category, w.SuccessRate, w.Rating, w.ResponseTime, w.PriceMatch)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Matching.MinSimilarity < 0 || c.Matching.MinSimilarity > 1 {
		return fmt.Errorf("matching.min_similarity must be within [0,1], got %g", c.Matching.MinSimilarity)
	}
	if _, err := c.Weights(); err != nil {
		return fmt.Errorf("matching.weights: %w", err)
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
