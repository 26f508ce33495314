package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/export"
	"github.com/balkashynov/taigit/internal/fetch"
	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/taiga"
)

// Config holds settings from the config file, an optional .env file and the
// environment, in increasing order of precedence
type Config struct {
	DBPath string `yaml:"db" mapstructure:"db"`

	TaigaAPIURL  string `yaml:"taiga_api_url" mapstructure:"taiga_api_url"`
	TaigaWebURL  string `yaml:"taiga_web_url" mapstructure:"taiga_web_url"`
	GitHubAPIURL string `yaml:"github_api_url" mapstructure:"github_api_url"`
	GitLabAPIURL string `yaml:"gitlab_api_url" mapstructure:"gitlab_api_url"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	Debug       bool   `yaml:"debug" mapstructure:"debug"`
	LogFile     string `yaml:"log_file" mapstructure:"log_file"`
	MaxLogFiles int    `yaml:"max_log_files" mapstructure:"max_log_files"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() (*Config, error) {
	dbPath, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}
	return &Config{
		DBPath:       dbPath,
		TaigaAPIURL:  taiga.DefaultAPIURL,
		TaigaWebURL:  export.DefaultWebURL,
		GitHubAPIURL: hosting.DefaultGitHubURL,
		GitLabAPIURL: hosting.DefaultGitLabURL,
		FetchTimeout: fetch.DefaultTimeout,
		MaxLogFiles:  50,
	}, nil
}

// FilePath returns the config file location, TAIGIT_CONFIG or ~/.taigit/config.yaml
func FilePath() string {
	if p := os.Getenv("TAIGIT_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taigit", "config.yaml")
}

// Load merges defaults, the config file, .env from the working directory and
// the environment
func Load() (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	if err := loadFile(FilePath(), cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", FilePath(), err)
	}

	// a missing .env is fine
	_ = godotenv.Load()

	cfg.DBPath = getEnvWithDefault("TAIGIT_DB", cfg.DBPath)
	cfg.TaigaAPIURL = strings.TrimRight(getEnvWithDefault("TAIGA_API_URL", cfg.TaigaAPIURL), "/")
	cfg.TaigaWebURL = strings.TrimRight(getEnvWithDefault("TAIGA_WEB_URL", cfg.TaigaWebURL), "/")
	cfg.GitHubAPIURL = strings.TrimRight(getEnvWithDefault("GITHUB_API_URL", cfg.GitHubAPIURL), "/")
	cfg.GitLabAPIURL = strings.TrimRight(getEnvWithDefault("GITLAB_API_URL", cfg.GitLabAPIURL), "/")
	cfg.FetchTimeout = getEnvAsDurationWithDefault("TAIGIT_FETCH_TIMEOUT", cfg.FetchTimeout)
	if v := os.Getenv("TAIGIT_DEBUG"); v != "" {
		cfg.Debug = v == "1"
	}
	cfg.LogFile = getEnvWithDefault("TAIGIT_LOG_FILE", cfg.LogFile)
	cfg.MaxLogFiles = getEnvAsIntWithDefault("TAIGIT_MAX_LOG_FILES", cfg.MaxLogFiles)

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = fetch.DefaultTimeout
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDurationWithDefault accepts "45s" style durations or plain seconds
func getEnvAsDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
