package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for skillhub.
type Config struct {
	Repos     []RepoConfig    `yaml:"repos"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RepoConfig is one local checkout that contains SKILL.md files.
type RepoConfig struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

// IndexConfig holds indexing configuration.
type IndexConfig struct {
	StorageDir  string        `yaml:"storage_dir"` // Directory holding index.db and index.lock
	Includes    []string      `yaml:"includes"`
	Excludes    []string      `yaml:"excludes"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	WatchDelay  time.Duration `yaml:"watch_delay"` // Debounce for index --watch
}

// SearchConfig holds retrieval configuration.
type SearchConfig struct {
	TopK           int           `yaml:"top_k"`
	MaxDepth       int           `yaml:"max_depth"`
	Overfetch      int           `yaml:"overfetch"`
	FollowIncoming bool          `yaml:"follow_incoming"` // Traverse edges in both directions
	CacheSize      int           `yaml:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"`    // "openai", "ollama", "hash"
	Model         string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv     string `yaml:"api_key_env"` // Environment variable for API key
	BaseURL       string `yaml:"base_url"`
	Dimension     int    `yaml:"dimension"`
	BatchSize     int    `yaml:"batch_size"`
	RetryAttempts int    `yaml:"retry_attempts"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "fmt" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			StorageDir:  defaultStorageDir(),
			Includes:    []string{"**/SKILL.md"},
			Excludes:    []string{"**/.git/**", "**/node_modules/**", "**/vendor/**", "**/dist/**"},
			LockTimeout: 30 * time.Second,
			WatchDelay:  500 * time.Millisecond,
		},
		Search: SearchConfig{
			TopK:      10,
			MaxDepth:  2,
			Overfetch: 2,
			CacheSize: 100,
			CacheTTL:  5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:      "hash",
			Model:         "text-embedding-3-small",
			APIKeyEnv:     "OPENAI_API_KEY",
			Dimension:     384,
			BatchSize:     64,
			RetryAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "fmt",
		},
	}
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".skillhub"
	}
	return filepath.Join(home, ".skillhub")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Relative repo paths are resolved against the config file location.
	base := filepath.Dir(path)
	for i := range cfg.Repos {
		if cfg.Repos[i].Path != "" && !filepath.IsAbs(cfg.Repos[i].Path) {
			cfg.Repos[i].Path = filepath.Join(base, cfg.Repos[i].Path)
		}
		if cfg.Repos[i].ID == "" {
			cfg.Repos[i].ID = filepath.Base(cfg.Repos[i].Path)
		}
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for skillhub.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "skillhub.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".skillhub", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(storageDir string) string {
	return filepath.Join(storageDir, "index.db")
}

// IndexLockPath returns the path of the single-writer lock file.
func IndexLockPath(storageDir string) string {
	return filepath.Join(storageDir, "index.lock")
}

// EnsureStorageDir ensures the storage directory exists.
func EnsureStorageDir(storageDir string) error {
	return os.MkdirAll(storageDir, 0755)
}
