package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings after file, .env and environment have
// been applied.
type Config struct {
	APIURL            string
	Timeout           time.Duration
	SessionPath       string
	LogPath           string
	LogLevel          string
	RequestsPerSecond float64
	VisitorFallback   bool
	PollInterval      time.Duration
}

const (
	defaultConfigPath   = "~/.config/veriaccess/config.toml"
	defaultAPIURL       = "http://localhost:8000/api"
	defaultTimeout      = 30 * time.Second
	defaultSessionPath  = "~/.local/state/veriaccess/session.toml"
	defaultLogPath      = "~/.local/state/veriaccess/veriaccess.log"
	defaultLogLevel     = "info"
	defaultPollInterval = 5 * time.Second
	defaultDotenvFile   = ".env"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		Timeout:         defaultTimeout,
		SessionPath:     mustExpand(defaultSessionPath),
		LogPath:         mustExpand(defaultLogPath),
		LogLevel:        defaultLogLevel,
		VisitorFallback: true,
		PollInterval:    defaultPollInterval,
	}
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	APIURL            string  `toml:"api_url"`
	Timeout           string  `toml:"timeout"`
	SessionPath       string  `toml:"session_path"`
	LogPath           string  `toml:"log_path"`
	LogLevel          string  `toml:"log_level"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	VisitorFallback   *bool   `toml:"visitor_fallback"`
	PollInterval      string  `toml:"poll_interval"`
}

// envConfig is decoded from VERIACCESS_* variables. Empty values leave the
// file settings in place.
type envConfig struct {
	APIURL            string        `env:"VERIACCESS_API_URL"`
	Timeout           time.Duration `env:"VERIACCESS_TIMEOUT"`
	SessionPath       string        `env:"VERIACCESS_SESSION_PATH"`
	LogPath           string        `env:"VERIACCESS_LOG_PATH"`
	LogLevel          string        `env:"VERIACCESS_LOG_LEVEL"`
	RequestsPerSecond float64       `env:"VERIACCESS_REQUESTS_PER_SECOND"`
}

// Load reads the config file at path (or the default location), then a .env
// file in the working directory, then VERIACCESS_* environment variables.
// A missing config or .env file is not an error.
func Load(path string) (Config, error) {
	return load(path, defaultDotenvFile)
}

func load(path, dotenv string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = raw.RequestsPerSecond
	}
	if raw.VisitorFallback != nil {
		cfg.VisitorFallback = *raw.VisitorFallback
	}
	if v := strings.TrimSpace(raw.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}

	if v := strings.TrimSpace(env.APIURL); v != "" {
		cfg.APIURL = v
	}
	if env.Timeout > 0 {
		cfg.Timeout = env.Timeout
	}
	if v := strings.TrimSpace(env.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(env.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.TrimSpace(env.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if env.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = env.RequestsPerSecond
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("invalid config: api_url is empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid config: timeout must be positive, got %s", c.Timeout)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("invalid config: poll_interval must be at least 1s, got %s", c.PollInterval)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid config: requests_per_second must not be negative")
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
