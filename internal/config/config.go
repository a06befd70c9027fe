package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the search gateway's configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Engine     EngineConfig     `yaml:"engine"`
	Health     HealthConfig     `yaml:"health"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds bearer-token authentication settings. A request with no
// Authorization header passes through with zero-value claims; a bearer
// token with no entry here is rejected with 401.
type AuthConfig struct {
	Tokens map[string]TokenClaimsConfig `yaml:"tokens"`
}

// TokenClaimsConfig is the claims a single static bearer token resolves to.
type TokenClaimsConfig struct {
	Roles  []string `yaml:"roles"`
	Groups []string `yaml:"groups"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig configures the two-level response cache.
type CacheConfig struct {
	L1MaxEntries    int    `yaml:"l1_max_entries"`
	L1DefaultTTLMs  int    `yaml:"l1_default_ttl_ms"`
	L2Enabled       bool   `yaml:"l2_enabled"`
	L2Endpoint      string `yaml:"l2_endpoint"`
	L2Password      string `yaml:"l2_password"`
}

// ClassifierConfig configures the request-complexity scoring thresholds.
type ClassifierConfig struct {
	SimpleThreshold  float64 `yaml:"simple_threshold"`
	ComplexThreshold float64 `yaml:"complex_threshold"`
	LongQueryChars   int     `yaml:"long_query_chars"`
	LargePageSize    int     `yaml:"large_page_size"`
}

// DispatchConfig configures deadline clamping and the hybrid plan.
type DispatchConfig struct {
	DefaultTimeoutMs      int      `yaml:"default_timeout_ms"`
	MinTimeoutMs          int      `yaml:"min_timeout_ms"`
	MaxTimeoutMs          int      `yaml:"max_timeout_ms"`
	HybridOverfetchFactor int      `yaml:"hybrid_overfetch_factor"`
	FallbackTimeoutMs     int      `yaml:"fallback_timeout_ms"`
	ExactFilterFields     []string `yaml:"exact_filter_fields"`
}

// EngineConfig configures the two backing engines.
type EngineConfig struct {
	Simple  SimpleEngineConfig  `yaml:"simple"`
	Complex ComplexEngineConfig `yaml:"complex"`
}

// SimpleEngineConfig configures the Redis-backed key/prefix engine.
type SimpleEngineConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	RequestTimeoutMs int      `yaml:"request_timeout_ms"`
}

// ComplexEngineConfig configures the OpenSearch-backed full-text engine.
type ComplexEngineConfig struct {
	Addresses              []string `yaml:"addresses"`
	Username               string   `yaml:"username"`
	Password               string   `yaml:"password"`
	InsecureSkipTLS        bool     `yaml:"insecure_skip_tls"`
	Index                  string   `yaml:"index"`
	FacetFields            []string `yaml:"facet_fields"`
	DateHistogramField     string   `yaml:"date_histogram_field"`
	NumericRangeField      string   `yaml:"numeric_range_field"`
	HighlightFragmentSize  int      `yaml:"highlight_fragment_size"`
	HighlightFragmentCount int      `yaml:"highlight_fragment_count"`
	RequestTimeoutMs       int      `yaml:"request_timeout_ms"`
}

// HealthConfig configures the background health prober.
type HealthConfig struct {
	ProbeIntervalMs int `yaml:"probe_interval_ms"`
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

// ApplyDefaults fills empty fields with default values drawn from the
// documented configuration surface.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Cache.L1MaxEntries <= 0 {
		c.Cache.L1MaxEntries = 10000
	}
	if c.Cache.L1DefaultTTLMs <= 0 {
		c.Cache.L1DefaultTTLMs = 120_000
	}

	if c.Classifier.SimpleThreshold <= 0 {
		c.Classifier.SimpleThreshold = 3.0
	}
	if c.Classifier.ComplexThreshold <= 0 {
		c.Classifier.ComplexThreshold = 8.0
	}
	if c.Classifier.LongQueryChars <= 0 {
		c.Classifier.LongQueryChars = 80
	}
	if c.Classifier.LargePageSize <= 0 {
		c.Classifier.LargePageSize = 100
	}

	if c.Dispatch.DefaultTimeoutMs <= 0 {
		c.Dispatch.DefaultTimeoutMs = 700
	}
	if c.Dispatch.MinTimeoutMs <= 0 {
		c.Dispatch.MinTimeoutMs = 50
	}
	if c.Dispatch.MaxTimeoutMs <= 0 {
		c.Dispatch.MaxTimeoutMs = 2000
	}
	if c.Dispatch.HybridOverfetchFactor <= 0 {
		c.Dispatch.HybridOverfetchFactor = 3
	}
	if c.Dispatch.FallbackTimeoutMs <= 0 {
		c.Dispatch.FallbackTimeoutMs = 200
	}

	if c.Engine.Simple.KeyPrefix == "" {
		c.Engine.Simple.KeyPrefix = "searchgate:"
	}
	if c.Engine.Simple.RequestTimeoutMs <= 0 {
		c.Engine.Simple.RequestTimeoutMs = 300
	}
	if c.Engine.Complex.RequestTimeoutMs <= 0 {
		c.Engine.Complex.RequestTimeoutMs = 500
	}
	if c.Engine.Complex.HighlightFragmentSize <= 0 {
		c.Engine.Complex.HighlightFragmentSize = 150
	}
	if c.Engine.Complex.HighlightFragmentCount <= 0 {
		c.Engine.Complex.HighlightFragmentCount = 3
	}

	if c.Health.ProbeIntervalMs <= 0 {
		c.Health.ProbeIntervalMs = 15_000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Dispatch.MinTimeoutMs > c.Dispatch.MaxTimeoutMs {
		return fmt.Errorf("dispatch.min_timeout_ms (%d) must not exceed dispatch.max_timeout_ms (%d)",
			c.Dispatch.MinTimeoutMs, c.Dispatch.MaxTimeoutMs)
	}
	if len(c.Engine.Simple.Addrs) == 0 {
		return fmt.Errorf("engine.simple.addrs is required")
	}
	if len(c.Engine.Complex.Addresses) == 0 {
		return fmt.Errorf("engine.complex.addresses is required")
	}
	if c.Cache.L2Enabled && c.Cache.L2Endpoint == "" {
		return fmt.Errorf("cache.l2_endpoint is required when cache.l2_enabled is true")
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
