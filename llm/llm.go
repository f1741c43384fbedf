// Package llm sends a single system/user prompt pair to a large language
// model and returns its text reply.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderStatic    = "static"
)

// Defaults applied by Settings.WithDefaults.
const (
	DefaultProvider       = ProviderAnthropic
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4o"
	DefaultDeepSeekModel  = "deepseek-chat"
	DefaultDeepSeekURL    = "https://api.deepseek.com/v1"
	DefaultMaxTokens      = 4096
)

var (
	// ErrMissingAPIKey is returned when a provider that needs a key has none.
	ErrMissingAPIKey = errors.New("LLM API key not configured")

	// ErrUnknownProvider is returned for provider names that are not
	// supported.
	ErrUnknownProvider = errors.New("unknown LLM provider")

	// ErrEmptyReply is returned when the model answers with no text.
	ErrEmptyReply = errors.New("LLM returned an empty reply")
)

// Prompt is one request to the model.
type Prompt struct {
	System string
	User   string
}

// Client abstracts the model backend.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Settings select and configure a Client.
type Settings struct {
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model" yaml:"model"`
	APIKey    string `json:"-" yaml:"api_key"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`

	// StaticReply is returned by the static provider.
	StaticReply string `json:"-" yaml:"-"`
}

// WithDefaults returns a copy of the settings with provider-specific
// defaults filled in.
func (s Settings) WithDefaults() Settings {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = DefaultProvider
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	if s.Model == "" {
		switch s.Provider {
		case ProviderAnthropic:
			s.Model = DefaultAnthropicModel
		case ProviderOpenAI:
			s.Model = DefaultOpenAIModel
		case ProviderDeepSeek:
			s.Model = DefaultDeepSeekModel
		}
	}
	if s.BaseURL == "" && s.Provider == ProviderDeepSeek {
		s.BaseURL = DefaultDeepSeekURL
	}
	return s
}

// NewClient creates the client for the configured provider. It fails before
// any network call when the provider is unknown or its API key is missing.
func NewClient(settings Settings) (Client, error) {
	settings = settings.WithDefaults()

	switch settings.Provider {
	case ProviderAnthropic:
		client, err := NewAnthropic(settings)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderOpenAI, ProviderDeepSeek:
		client, err := NewOpenAI(settings)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ProviderStatic:
		return Static{Reply: settings.StaticReply}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, settings.Provider)
	}
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderAnthropic, ProviderOpenAI, ProviderDeepSeek, ProviderStatic}
}
