package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lumina-search/lumina/internal/domain/image"
)

// Supported backends.
const (
	DriverRedis  = "redis"
	DriverMilvus = "milvus"

	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"
)

// Config holds the Lumina API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	VectorStore VectorStoreConfig `yaml:"vectorstore"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Upload      UploadConfig      `yaml:"upload"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotated JSON log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int      `yaml:"max_upload_mb"`
	CORSOrigins     []string `yaml:"cors_origins"`
	StaticDir       string   `yaml:"static_dir"`
}

// VectorStoreConfig holds the hosted vector database settings.
type VectorStoreConfig struct {
	Driver           string   `yaml:"driver"` // redis, milvus (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	DBName           string   `yaml:"db_name"` // milvus database
	Index            string   `yaml:"index"`   // FT index or milvus collection name
	KeyPrefix        string   `yaml:"key_prefix"`
	Dimension        int      `yaml:"dimension"`
	DefaultNamespace string   `yaml:"default_namespace"`
	UpsertChunkSize  int      `yaml:"upsert_chunk_size"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider     string      `yaml:"provider"` // cohere, openai (default: cohere)
	APIKey       string      `yaml:"api_key"`  // empty falls back to COHERE_API_KEY or OPENAI_API_KEY
	BaseURL      string      `yaml:"base_url"`
	Model        string      `yaml:"model"`
	Dimensions   int         `yaml:"dimensions"` // requested output size, 0 = provider default
	MaxBatchSize int         `yaml:"max_batch_size"`
	MaxImageSide int         `yaml:"max_image_side"`
	MaxPixels    int         `yaml:"max_image_pixels"` // decoded size limit per upload
	JPEGQuality  int         `yaml:"jpeg_quality"`
	Cache        CacheConfig `yaml:"cache"`
}

// CacheConfig holds the query embedding cache settings.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// UploadConfig holds batch upload settings.
type UploadConfig struct {
	BatchEmbedSize   int `yaml:"batch_embed_size"`
	BatchConcurrency int `yaml:"batch_concurrency"`
	MaxBatchFiles    int `yaml:"max_batch_files"`
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
		c.HTTP.ReadTimeoutSec = 60
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}

	c.VectorStore.applyDefaults()
	c.Embedding.applyDefaults()

	if c.Upload.BatchEmbedSize <= 0 {
		c.Upload.BatchEmbedSize = 50
	}
	if c.Upload.BatchConcurrency <= 0 {
		c.Upload.BatchConcurrency = 4
	}
	if c.Upload.MaxBatchFiles <= 0 {
		c.Upload.MaxBatchFiles = 500
	}
}

func (v *VectorStoreConfig) applyDefaults() {
	if v.Driver == "" {
		v.Driver = DriverRedis
	}
	if v.Index == "" {
		v.Index = "lumina"
	}
	if v.KeyPrefix == "" {
		v.KeyPrefix = "lumina:"
	}
	if v.Dimension <= 0 {
		v.Dimension = 1536
	}
	if v.DefaultNamespace == "" {
		v.DefaultNamespace = "images"
	}
	if v.UpsertChunkSize <= 0 {
		v.UpsertChunkSize = 100
	}
	if v.HNSWM <= 0 {
		v.HNSWM = 16
	}
	if v.HNSWEFConstruct <= 0 {
		v.HNSWEFConstruct = 200
	}
	if v.ReadinessTimeout <= 0 {
		v.ReadinessTimeout = 10
	}
	if v.DBName == "" {
		v.DBName = "default"
	}
}

// providerKeyEnv names the provider-specific key variable used when api_key is empty.
var providerKeyEnv = map[string]string{
	ProviderCohere: "COHERE_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

func (e *EmbeddingConfig) applyDefaults() {
	if e.Provider == "" {
		e.Provider = ProviderCohere
	}
	if e.APIKey == "" {
		e.APIKey = os.Getenv(providerKeyEnv[e.Provider])
	}
	if e.Model == "" && e.Provider == ProviderCohere {
		e.Model = "embed-v4.0"
	}
	if e.MaxBatchSize <= 0 {
		e.MaxBatchSize = 96
	}
	if e.MaxImageSide <= 0 {
		e.MaxImageSide = 512
	}
	if e.MaxPixels <= 0 {
		e.MaxPixels = 40_000_000
	}
	if e.JPEGQuality <= 0 || e.JPEGQuality > 100 {
		e.JPEGQuality = 90
	}
	if e.Cache.TTLHours <= 0 {
		e.Cache.TTLHours = 24
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.VectorStore.Driver {
	case DriverRedis, DriverMilvus:
	default:
		return fmt.Errorf("vectorstore.driver must be %q or %q, got %q",
			DriverRedis, DriverMilvus, c.VectorStore.Driver)
	}
	if len(c.VectorStore.Addrs) == 0 {
		return fmt.Errorf("vectorstore.addrs is required")
	}
	if err := image.ValidateNamespace(c.VectorStore.DefaultNamespace); err != nil {
		return fmt.Errorf("vectorstore.default_namespace: %w", err)
	}

	switch c.Embedding.Provider {
	case ProviderCohere, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderCohere, ProviderOpenAI, c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required for provider %q", c.Embedding.Provider)
	}

	if c.Embedding.Cache.Enabled && c.VectorStore.Driver != DriverRedis {
		return fmt.Errorf("embedding.cache requires the %q driver", DriverRedis)
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
