package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is the default chat model for OpenAI-compatible servers.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIModel generates text through an OpenAI-compatible chat completions API.
type OpenAIModel struct {
	client openai.Client
	model  string
}

// NewOpenAIModel creates a model. An empty baseURL uses the public API.
func NewOpenAIModel(apiKey, baseURL, model string, timeout time.Duration) *OpenAIModel {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIModel{client: openai.NewClient(opts...), model: model}
}

// Name returns the model name.
func (m *OpenAIModel) Name() string {
	return m.model
}

// Generate implements Model with zero temperature and a fixed seed.
func (m *OpenAIModel) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a careful assistant that summarizes scientific literature."),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(int64(opts.MaxTokens)),
		Temperature:         openai.Float(0),
		Seed:                openai.Int(0),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
