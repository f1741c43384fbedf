package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI implements Client with the chat completions API. It also serves
// OpenAI-compatible endpoints such as DeepSeek through BaseURL.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAI creates an OpenAI-compatible client from settings.
func NewOpenAI(settings Settings) (*OpenAI, error) {
	settings = settings.WithDefaults()
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or llm.api_key", ErrMissingAPIKey)
	}
	if settings.Model == "" {
		return nil, fmt.Errorf("llm model is required for provider %q", settings.Provider)
	}

	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	return &OpenAI{
		client:    openai.NewClient(opts...),
		model:     settings.Model,
		maxTokens: int64(settings.MaxTokens),
	}, nil
}

// Complete sends the prompt and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(o.model),
		Messages:  msgs,
		MaxTokens: openai.Int(o.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call chat completions API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyReply
	}

	return reply, nil
}
