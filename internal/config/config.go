package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr     = ":5000"
	DefaultRulesPath      = "rules/jurisdictions.yaml"
	DefaultFrontendOrigin = "http://localhost:5173"
)

var (
	supportedDrivers   = []string{"memory", "sqlite", "postgres", "pgx"}
	supportedProviders = []string{"gemini", "openai"}
)

type Config struct {
	ListenAddr string     `yaml:"listen_addr"`
	RulesPath  string     `yaml:"rules_path"`
	DB         DBConfig   `yaml:"db"`
	LLM        LLMConfig  `yaml:"llm"`
	CORS       CORSConfig `yaml:"cors"`
	Auth       AuthConfig `yaml:"auth"`
	Log        LogConfig  `yaml:"log"`
}

type DBConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	// Model is left empty to use the provider's default model.
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Temperature     float64       `yaml:"temperature"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	MaxAttempts     int           `yaml:"max_attempts"`
	BackoffBase     time.Duration `yaml:"backoff_base"`
	Timeout         time.Duration `yaml:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type AuthConfig struct {
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		RulesPath:  DefaultRulesPath,
		DB:         DBConfig{Driver: "memory"},
		LLM: LLMConfig{
			Provider:        "gemini",
			Temperature:     0.3,
			MaxOutputTokens: 4000,
			MaxAttempts:     1,
			BackoffBase:     2 * time.Second,
		},
		CORS: CORSConfig{AllowedOrigins: []string{DefaultFrontendOrigin}},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped and variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv reads path over the defaults, expands ${VAR} references with
// getenv and applies environment overrides. An empty path skips the file.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()
	if path != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		expanded := os.Expand(string(raw), getenv)
		expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overlays the LEXGEN_* variables and provider API keys.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.ListenAddr, "LEXGEN_LISTEN_ADDR")
	set(&c.RulesPath, "LEXGEN_RULES_PATH")
	set(&c.DB.Driver, "LEXGEN_DB_DRIVER")
	set(&c.DB.DSN, "LEXGEN_DB_DSN")
	set(&c.LLM.Provider, "LEXGEN_LLM_PROVIDER")
	set(&c.LLM.Model, "LEXGEN_LLM_MODEL")
	set(&c.LLM.BaseURL, "LEXGEN_LLM_BASE_URL")
	set(&c.Auth.Token, "LEXGEN_API_TOKEN")
	set(&c.Log.Level, "LEXGEN_LOG_LEVEL")
	set(&c.Log.Format, "LEXGEN_LOG_FORMAT")

	if c.LLM.APIKey == "" {
		switch strings.ToLower(c.LLM.Provider) {
		case "gemini":
			set(&c.LLM.APIKey, "GEMINI_API_KEY")
		case "openai":
			set(&c.LLM.APIKey, "OPENAI_API_KEY")
		}
	}

	if origin := strings.TrimSpace(getenv("FRONTEND_URL")); origin != "" {
		c.CORS.AllowedOrigins = []string{origin}
	}

	if v := strings.TrimSpace(getenv("LEXGEN_LLM_MAX_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEXGEN_LLM_MAX_ATTEMPTS: %w", err)
		}
		c.LLM.MaxAttempts = n
	}
	if v := strings.TrimSpace(getenv("LEXGEN_LLM_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LEXGEN_LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.RulesPath == "" {
		return fmt.Errorf("rules_path is required")
	}

	driver := strings.ToLower(c.DB.Driver)
	if !contains(supportedDrivers, driver) {
		return fmt.Errorf("db.driver must be one of %s", strings.Join(supportedDrivers, ", "))
	}
	if driver != "memory" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver=%s", driver)
	}

	provider := strings.ToLower(c.LLM.Provider)
	if !contains(supportedProviders, provider) {
		return fmt.Errorf("llm.provider must be one of %s", strings.Join(supportedProviders, ", "))
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider %s", provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens must be positive")
	}
	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be at least 1")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
