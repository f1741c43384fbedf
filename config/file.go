package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMFileConfig is the llm section of the config file.
type LLMFileConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ScraperFileConfig is the scraper section of the config file. Durations
// use Go syntax ("30s", "500ms").
type ScraperFileConfig struct {
	UserAgent           string `yaml:"user_agent"`
	Timeout             string `yaml:"timeout"`
	RobotsTimeout       string `yaml:"robots_timeout"`
	MaxRetries          int    `yaml:"max_retries"`
	RetryDelay          string `yaml:"retry_delay"`
	PolitenessDelay     string `yaml:"politeness_delay"`
	ReadabilityFallback *bool  `yaml:"readability_fallback"`
}

// DigestFileConfig is the digest section of the config file.
type DigestFileConfig struct {
	Style           string `yaml:"style"`
	MaxSummaryWords int    `yaml:"max_summary_words"`
	ContentBudget   int    `yaml:"content_budget"`
}

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	History struct {
		Type string `yaml:"type"`
		DSN  string `yaml:"dsn"`
	} `yaml:"history"`
}

// ServerFileConfig is the server section of the config file.
type ServerFileConfig struct {
	Addr           string `yaml:"addr"`
	RequestTimeout string `yaml:"request_timeout"`
}

// FileConfig represents the structure of ~/.newsdigest/config.yaml.
type FileConfig struct {
	LLM     LLMFileConfig     `yaml:"llm"`
	Scraper ScraperFileConfig `yaml:"scraper"`
	Digest  DigestFileConfig  `yaml:"digest"`
	Storage StorageConfig     `yaml:"storage"`
	Server  ServerFileConfig  `yaml:"server"`
}

// ConfigDir returns ~/.newsdigest.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".newsdigest"), nil
}

// ConfigFilePath returns the path of the config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.newsdigest/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return loadConfigFileAt(configPath)
}

func loadConfigFileAt(configPath string) (*FileConfig, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

const defaultConfigTemplate = `# newsdigest configuration.
# Environment variables override these values; see "newsdigest --help".

llm:
  # anthropic, openai, deepseek or static
  provider: anthropic
  # model defaults per provider; uncomment to pin one
  # model: claude-sonnet-4-20250514
  # api_key: set ANTHROPIC_API_KEY or OPENAI_API_KEY instead
  max_tokens: 4096

scraper:
  timeout: 30s
  robots_timeout: 10s
  max_retries: 3
  retry_delay: 2s
  politeness_delay: 500ms
  readability_fallback: true

digest:
  # classic, author-first, social, author-social or summaries-only
  style: classic
  max_summary_words: 50
  content_budget: 5000

storage:
  history:
    type: sqlite
    dsn: %q

server:
  addr: ":8080"
  request_timeout: 5m
`

// WriteDefaultConfigFile writes a commented default config file. It returns
// false without touching the file when one already exists and force is not
// set.
func WriteDefaultConfigFile(force bool) (bool, error) {
	dir, err := ConfigDir()
	if err != nil {
		return false, err
	}
	configPath := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil && !force {
		return false, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultConfigTemplate, filepath.Join(dir, "history.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
