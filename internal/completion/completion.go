// Package completion sends assembled prompts to a language model.
//
// Two clients are provided: Yandex, which speaks the YandexGPT
// foundationModels completion API, and OpenAI, for any OpenAI compatible
// chat endpoint. Both take the bearer credential per call and never
// retry; every failure is wrapped with types.ErrTransport.
package completion

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Providers
const (
	ProviderYandex = "yandex"
	ProviderOpenAI = "openai"
)

// DefaultTimeout bounds a single completion request
const DefaultTimeout = 60 * time.Second

// Client answers a rendered prompt
type Client interface {
	// Complete returns the model's answer to prompt. token is the bearer
	// credential and is only forwarded.
	Complete(ctx context.Context, prompt, token string) (string, error)
}

// Config configures a completion client
type Config struct {
	Provider     string
	BaseURL      string // empty means the provider default
	Model        string
	FolderID     string // yandex only
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
}

// New creates the client for cfg.Provider
func New(cfg Config) (Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderYandex, "":
		return NewYandex(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
