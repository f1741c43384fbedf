// Package config resolves newsdigest settings from defaults, the config
// file, .env files and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/llm"
	"github.com/pevans/newsdigest/scraper"
)

// Server defaults.
const (
	DefaultAddr           = ":8080"
	DefaultRequestTimeout = 5 * time.Minute
	DefaultHistoryType    = "sqlite"
	DefaultHistoryDSN     = "history.db"
)

// Environment variables read by Resolve.
const (
	EnvProvider        = "NEWSDIGEST_LLM_PROVIDER"
	EnvModel           = "NEWSDIGEST_LLM_MODEL"
	EnvStyle           = "NEWSDIGEST_STYLE"
	EnvHistoryDSN      = "NEWSDIGEST_HISTORY_DSN"
	EnvMaxSummaryWords = "NEWSDIGEST_MAX_SUMMARY_WORDS"
	EnvAddr            = "NEWSDIGEST_ADDR"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvDeepSeekKey     = "DEEPSEEK_API_KEY"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `json:"addr"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// HistoryConfig locates the digest history database.
type HistoryConfig struct {
	Type string `json:"type"`
	DSN  string `json:"dsn"`
}

// Config is the fully resolved configuration.
type Config struct {
	LLM     llm.Settings   `json:"llm"`
	Scraper scraper.Config `json:"-"`
	Style   digest.Style   `json:"style"`
	Digest  digest.Options `json:"digest"`
	History HistoryConfig  `json:"history"`
	Server  ServerConfig   `json:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaults()
	cfg.LLM = cfg.LLM.WithDefaults()
	return cfg
}

// defaults leaves the model unset so it can follow the resolved provider.
func defaults() *Config {
	return &Config{
		LLM:     llm.Settings{Provider: llm.DefaultProvider, MaxTokens: llm.DefaultMaxTokens},
		Scraper: scraper.DefaultConfig(),
		Style:   digest.DefaultStyle,
		Digest:  digest.Options{}.WithDefaults(),
		History: HistoryConfig{Type: DefaultHistoryType, DSN: DefaultHistoryDSN},
		Server:  ServerConfig{Addr: DefaultAddr, RequestTimeout: DefaultRequestTimeout},
	}
}

// Load resolves configuration with precedence:
// 1. Environment variables (highest priority, including .env files)
// 2. Configuration file (~/.newsdigest/config.yaml)
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	file, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	return Resolve(file)
}

// LoadEnvFiles loads the given .env files, or ".env" when none are given.
// Existing environment variables are never overwritten and missing files
// are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// Resolve layers file (which may be nil) and the environment over the
// defaults.
func Resolve(file *FileConfig) (*Config, error) {
	cfg := defaults()

	if file != nil {
		if err := cfg.applyFile(file); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.LLM = cfg.LLM.WithDefaults()

	return cfg, nil
}

func (c *Config) applyFile(file *FileConfig) error {
	if file.LLM.Provider != "" {
		c.LLM.Provider = file.LLM.Provider
	}
	if file.LLM.Model != "" {
		c.LLM.Model = file.LLM.Model
	}
	if file.LLM.APIKey != "" {
		c.LLM.APIKey = file.LLM.APIKey
	}
	if file.LLM.BaseURL != "" {
		c.LLM.BaseURL = file.LLM.BaseURL
	}
	if file.LLM.MaxTokens > 0 {
		c.LLM.MaxTokens = file.LLM.MaxTokens
	}

	s := file.Scraper
	if s.UserAgent != "" {
		c.Scraper.UserAgent = s.UserAgent
	}
	if s.MaxRetries > 0 {
		c.Scraper.MaxRetries = s.MaxRetries
	}
	if s.ReadabilityFallback != nil {
		c.Scraper.DisableReadability = !*s.ReadabilityFallback
	}
	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"scraper.timeout", s.Timeout, &c.Scraper.Timeout},
		{"scraper.robots_timeout", s.RobotsTimeout, &c.Scraper.RobotsTimeout},
		{"scraper.retry_delay", s.RetryDelay, &c.Scraper.RetryDelay},
		{"scraper.politeness_delay", s.PolitenessDelay, &c.Scraper.PolitenessDelay},
		{"server.request_timeout", file.Server.RequestTimeout, &c.Server.RequestTimeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.dest = parsed
	}

	if file.Digest.Style != "" {
		style, err := digest.ParseStyle(file.Digest.Style)
		if err != nil {
			return fmt.Errorf("invalid digest.style: %w", err)
		}
		c.Style = style
	}
	if file.Digest.MaxSummaryWords > 0 {
		c.Digest.MaxSummaryWords = file.Digest.MaxSummaryWords
	}
	if file.Digest.ContentBudget > 0 {
		c.Digest.ContentBudget = file.Digest.ContentBudget
	}

	if file.Storage.History.Type != "" {
		c.History.Type = file.Storage.History.Type
	}
	if file.Storage.History.DSN != "" {
		c.History.DSN = file.Storage.History.DSN
	}
	if file.Server.Addr != "" {
		c.Server.Addr = file.Server.Addr
	}

	return nil
}

func (c *Config) applyEnv() error {
	if val := os.Getenv(EnvProvider); val != "" {
		c.LLM.Provider = val
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if val := os.Getenv(EnvModel); val != "" {
		c.LLM.Model = val
	}

	keyVar := ""
	switch c.LLM.Provider {
	case llm.ProviderAnthropic:
		keyVar = EnvAnthropicKey
	case llm.ProviderOpenAI:
		keyVar = EnvOpenAIKey
	case llm.ProviderDeepSeek:
		keyVar = EnvDeepSeekKey
	}
	if keyVar != "" {
		if val := os.Getenv(keyVar); val != "" {
			c.LLM.APIKey = val
		}
	}

	if val := os.Getenv(EnvStyle); val != "" {
		style, err := digest.ParseStyle(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStyle, err)
		}
		c.Style = style
	}
	if val := os.Getenv(EnvMaxSummaryWords); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s %q: must be a positive integer", EnvMaxSummaryWords, val)
		}
		c.Digest.MaxSummaryWords = n
	}
	if val := os.Getenv(EnvHistoryDSN); val != "" {
		c.History.DSN = val
	}
	if val := os.Getenv(EnvAddr); val != "" {
		c.Server.Addr = val
	}

	return nil
}
