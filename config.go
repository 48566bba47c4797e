package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aktagon/articles-client/internal/credstore"
)

const (
	defaultBaseURL   = "http://localhost:9000/api"
	configName       = ".articles"
	minDraftMaxToken = 200
)

// Settings represents the configuration file structure
type Settings struct {
	API         APISettings        `mapstructure:"api" yaml:"api"`
	Credentials CredentialSettings `mapstructure:"credentials" yaml:"credentials"`
	Logging     LoggingSettings    `mapstructure:"logging" yaml:"logging"`
	Output      OutputSettings     `mapstructure:"output" yaml:"output"`
	Draft       DraftSettings      `mapstructure:"draft" yaml:"draft"`
}

// APISettings configures the backend connection
type APISettings struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int           `mapstructure:"burst" yaml:"burst"`
}

// CredentialSettings selects where the bearer token is kept
type CredentialSettings struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	Path     string        `mapstructure:"path" yaml:"path"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LoggingSettings contains logging settings
type LoggingSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputSettings contains output formatting settings
type OutputSettings struct {
	Colors bool `mapstructure:"colors" yaml:"colors"`
}

// DraftSettings configures the drafting agent
type DraftSettings struct {
	Model            string  `mapstructure:"model" yaml:"model"`
	MaxTokens        int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`
	SystemPromptPath string  `mapstructure:"system_prompt_path" yaml:"system_prompt_path"`
}

// StoreConfig converts the credential settings for credstore.Open
func (s CredentialSettings) StoreConfig() credstore.Config {
	return credstore.Config{
		Backend:  s.Backend,
		Path:     s.Path,
		RedisURL: s.RedisURL,
		TTL:      s.TTL,
	}
}

// LoadSettings reads configuration from file, environment and defaults.
// An explicit cfgFile must exist; the default search path may be empty.
func LoadSettings(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/articles")
	}

	v.SetEnvPrefix("ARTICLES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&settings); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", defaultBaseURL)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("api.rate_limit", 0)
	v.SetDefault("api.burst", 1)

	v.SetDefault("credentials.backend", "file")
	v.SetDefault("credentials.path", defaultCredentialsPath())
	v.SetDefault("credentials.redis_url", "redis://localhost:6379/0")
	v.SetDefault("credentials.ttl", "0s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.colors", true)

	v.SetDefault("draft.model", "claude-sonnet-4-20250514")
	v.SetDefault("draft.max_tokens", 1200)
	v.SetDefault("draft.temperature", 0.3)
	v.SetDefault("draft.system_prompt_path", "")
}

// defaultCredentialsPath returns <user config dir>/articles/credentials.yaml
func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".articles", "credentials.yaml")
	}
	return filepath.Join(dir, "articles", "credentials.yaml")
}

func validate(s *Settings) error {
	if !strings.HasPrefix(s.API.BaseURL, "http://") && !strings.HasPrefix(s.API.BaseURL, "https://") {
		return fmt.Errorf("invalid api.base_url %q: must start with http:// or https://", s.API.BaseURL)
	}
	if s.API.Timeout < 0 {
		return fmt.Errorf("invalid api.timeout %s: must not be negative", s.API.Timeout)
	}
	if s.API.RateLimit < 0 {
		return fmt.Errorf("invalid api.rate_limit %v: must not be negative", s.API.RateLimit)
	}

	validBackends := map[string]bool{"memory": true, "file": true, "redis": true}
	if !validBackends[s.Credentials.Backend] {
		return fmt.Errorf("invalid credentials.backend: %s (must be memory, file, or redis)", s.Credentials.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[s.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", s.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", s.Logging.Format)
	}

	// Ensure MaxTokens leaves room for a whole article
	if s.Draft.MaxTokens < minDraftMaxToken {
		s.Draft.MaxTokens = minDraftMaxToken
	}
	return nil
}

const defaultConfigFile = `# articles client configuration
api:
  base_url: http://localhost:9000/api
  timeout: 0s        # 0 disables the client timeout
  rate_limit: 0      # requests per second, 0 disables limiting
  burst: 1
credentials:
  backend: file      # memory, file or redis
  # path: ~/.config/articles/credentials.yaml
  redis_url: redis://localhost:6379/0
  ttl: 0s
logging:
  level: info
  format: text
output:
  colors: true
draft:
  model: claude-sonnet-4-20250514
  max_tokens: 1200
  temperature: 0.3
`

// ensureConfigExists writes the default configuration to path unless a file
// is already there. It reports whether a file was written.
func ensureConfigExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfigFile), 0644); err != nil {
		return false, fmt.Errorf("failed to write default settings: %w", err)
	}
	return true, nil
}
