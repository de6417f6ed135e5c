package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dshills/coderag/pkg/types"
)

// DefaultOpenAIModel is used when Config.Model is empty
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI is a client for OpenAI compatible chat completion endpoints
type OpenAI struct {
	baseURL      string
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
	httpClient   *http.Client
}

// NewOpenAI creates an OpenAI chat completion client
func NewOpenAI(cfg Config) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAI{
		baseURL:      cfg.BaseURL,
		model:        model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (o *OpenAI) client(token string) *openai.Client {
	cfg := openai.DefaultConfig(token)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	cfg.HTTPClient = o.httpClient
	return openai.NewClientWithConfig(cfg)
}

func (o *OpenAI) Complete(ctx context.Context, prompt, token string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client(token).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", types.ErrTransport)
	}

	answer := resp.Choices[0].Message.Content
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: no answer available", types.ErrTransport)
	}
	return answer, nil
}
