package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = openai.GPT4oMini

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key not provided")
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		conf.HTTPClient = cfg.HTTPClient
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(conf), model: model}, nil
}

func (o *OpenAI) Name() string { return ProviderOpenAI }

func (o *OpenAI) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxOutputTokens,
	})
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", NewFatalError(errors.New("openai returned no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyHTTPError(apiErr.HTTPStatusCode, []byte(apiErr.Message))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyHTTPError(reqErr.HTTPStatusCode, []byte(reqErr.Error()))
	}

	return NewTransientError(fmt.Errorf("openai request failed: %w", err))
}
