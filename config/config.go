package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appDir = "searchfox-cli"

// Config holds all configuration for the searchfox CLI.
type Config struct {
	Repo    string        `yaml:"repo"`
	Client  ClientConfig  `yaml:"client"`
	Search  SearchConfig  `yaml:"search"`
	Extract ExtractConfig `yaml:"extract"`
	Graph   GraphConfig   `yaml:"graph"`
	Cache   CacheConfig   `yaml:"cache"`
	Local   LocalConfig   `yaml:"local"`
	Logging LoggingConfig `yaml:"logging"`
}

// ClientConfig holds HTTP collaborator settings.
type ClientConfig struct {
	BaseURL           string        `yaml:"base_url"`
	RawBaseURL        string        `yaml:"raw_base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`          // empty means searchfox-cli/VERSION
	RequestsPerSecond float64       `yaml:"requests_per_second"` // 0 = unlimited
	Concurrency       int           `yaml:"concurrency"`
}

type SearchConfig struct {
	Limit         int      `yaml:"limit"`
	AllowFulltext bool     `yaml:"allow_fulltext"`
	Excludes      []string `yaml:"excludes"`
}

// ExtractConfig bounds the brace-depth extractor.
type ExtractConfig struct {
	MaxLines        int `yaml:"max_lines"`
	Lookahead       int `yaml:"lookahead"`
	SignatureWindow int `yaml:"signature_window"`
	ContextLines    int `yaml:"context_lines"`
}

type GraphConfig struct {
	Depth int `yaml:"depth"`
}

// CacheConfig holds the in-memory and on-disk cache settings.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl"`
	Dir           string        `yaml:"dir"` // empty means the user cache dir
	MemoryEntries int           `yaml:"memory_entries"`
}

// LocalConfig points at an optional local checkout. Files are read from it
// when one of the markers exists under Root.
type LocalConfig struct {
	Root    string   `yaml:"root"`
	Markers []string `yaml:"markers"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Repo: "mozilla-central",
		Client: ClientConfig{
			BaseURL:           "https://searchfox.org",
			RawBaseURL:        "https://raw.githubusercontent.com",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 0,
			Concurrency:       4,
		},
		Search: SearchConfig{
			Limit:    50,
			Excludes: []string{"**/third_party/**"},
		},
		Extract: ExtractConfig{
			MaxLines:        200,
			Lookahead:       10,
			SignatureWindow: 3,
			ContextLines:    10,
		},
		Graph: GraphConfig{
			Depth: 1,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           24 * time.Hour,
			MemoryEntries: 256,
		},
		Local: LocalConfig{
			Markers: []string{"mach", ".hg", ".git"},
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Validate rejects settings the extractor and traversal cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Repo == "" {
		errs = append(errs, errors.New("repo must not be empty"))
	}
	if c.Graph.Depth < 1 {
		errs = append(errs, fmt.Errorf("graph.depth must be >= 1, got %d", c.Graph.Depth))
	}
	if c.Extract.MaxLines < 1 {
		errs = append(errs, fmt.Errorf("extract.max_lines must be >= 1, got %d", c.Extract.MaxLines))
	}
	if c.Extract.Lookahead < 0 || c.Extract.SignatureWindow < 0 || c.Extract.ContextLines < 0 {
		errs = append(errs, errors.New("extract windows must not be negative"))
	}
	if c.Client.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("client.concurrency must be >= 1, got %d", c.Client.Concurrency))
	}
	return errors.Join(errs...)
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the configuration from Path().
func LoadDefault() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// Save saves configuration to a YAML file, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, "config.yaml"), nil
}

// CacheDBPath returns the file cache database location.
func (c *Config) CacheDBPath() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appDir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "files.db"), nil
}
