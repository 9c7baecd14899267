package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Feed     Feed     `yaml:"feed"`
	Output   Output   `yaml:"output"`
	Dedup    Dedup    `yaml:"dedup"`
	XAI      XAI      `yaml:"xai"`
	Pipeline Pipeline `yaml:"pipeline"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Feed struct {
	URL      string `yaml:"url"`
	Articles int    `yaml:"articles"`
}

type Output struct {
	NewsDir       string `yaml:"news_dir"`
	ThumbnailsDir string `yaml:"thumbnails_dir"`
}

type Dedup struct {
	RetentionDays int    `yaml:"retention_days"`
	HashKeyEnv    string `yaml:"hash_key_env"`
}

type XAI struct {
	APIKeyEnv       string `yaml:"api_key_env"`
	BaseURL         string `yaml:"base_url"`
	ChatModel       string `yaml:"chat_model"`
	ImageModel      string `yaml:"image_model"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	MaxAttempts     int    `yaml:"max_attempts"`
	MaxArticleChars int    `yaml:"max_article_chars"`
}

type Pipeline struct {
	Workers int `yaml:"workers"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for emojinews.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "emojinews")
}

// DataDir returns the XDG data directory for emojinews.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "emojinews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/emojinews/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'emojinews init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Feed: Feed{
			URL:      "https://feeds.bbci.co.uk/news/world/us_and_canada/rss.xml",
			Articles: 1,
		},
		Dedup: Dedup{
			RetentionDays: 7,
			HashKeyEnv:    "ARTICLE_HASH_KEY",
		},
		XAI: XAI{
			APIKeyEnv:       "XAI_API_KEY",
			BaseURL:         "https://api.x.ai/v1",
			ChatModel:       "grok-4-1-fast-non-reasoning",
			ImageModel:      "grok-2-image",
			TimeoutSeconds:  3600,
			MaxAttempts:     3,
			MaxArticleChars: 100000,
		},
		Pipeline: Pipeline{Workers: 5},
		Server:   Server{Port: 8000},
		Logging:  Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// NewsDir returns the effective news output directory from config or XDG default.
func (c *Config) NewsDir() string {
	if c.Output.NewsDir != "" {
		return c.Output.NewsDir
	}
	return filepath.Join(DataDir(), "news")
}

// ThumbnailsDir returns the effective thumbnail output directory.
func (c *Config) ThumbnailsDir() string {
	if c.Output.ThumbnailsDir != "" {
		return c.Output.ThumbnailsDir
	}
	return filepath.Join(DataDir(), "thumbnails")
}

// HashKey resolves the dedup hashing secret from the environment. An empty
// result disables deduplication for the run; there is no built-in fallback key.
func (c *Config) HashKey() string {
	if c.Dedup.HashKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Dedup.HashKeyEnv)
}

// APIKey resolves the generative backend credential from the environment.
func (c *Config) APIKey() string {
	if c.XAI.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.XAI.APIKeyEnv)
}

// Retention returns the dedup retention window as a duration.
func (c *Config) Retention() time.Duration {
	days := c.Dedup.RetentionDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// XAITimeout returns the coarse timeout guarding generative API calls.
func (c *Config) XAITimeout() time.Duration {
	if c.XAI.TimeoutSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.XAI.TimeoutSeconds) * time.Second
}
