package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dshills/coderag/pkg/types"
)

const (
	// DefaultYandexURL is the YandexGPT completion endpoint
	DefaultYandexURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

	// DefaultYandexModel is used when Config.Model is empty
	DefaultYandexModel = "yandexgpt-lite"
)

// Yandex is a client for the YandexGPT completion API
type Yandex struct {
	url          string
	modelURI     string
	temperature  float32
	maxTokens    int
	systemPrompt string
	httpClient   *http.Client
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type yandexOptions struct {
	Stream      bool    `json:"stream"`
	Temperature float32 `json:"temperature"`
	MaxTokens   string  `json:"maxTokens"`
}

type yandexRequest struct {
	ModelURI          string          `json:"modelUri"`
	CompletionOptions yandexOptions   `json:"completionOptions"`
	Messages          []yandexMessage `json:"messages"`
}

type yandexResponse struct {
	Result struct {
		Alternatives []struct {
			Message yandexMessage `json:"message"`
			Status  string        `json:"status"`
		} `json:"alternatives"`
	} `json:"result"`
}

// NewYandex creates a YandexGPT client. The model URI is
// gpt://<FolderID>/<Model> unless Model already is a URI.
func NewYandex(cfg Config) *Yandex {
	url := cfg.BaseURL
	if url == "" {
		url = DefaultYandexURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultYandexModel
	}
	modelURI := model
	if !strings.Contains(model, "://") {
		modelURI = "gpt://" + cfg.FolderID + "/" + model
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Yandex{
		url:          url,
		modelURI:     modelURI,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (y *Yandex) Complete(ctx context.Context, prompt, token string) (string, error) {
	reqBody := yandexRequest{
		ModelURI: y.modelURI,
		CompletionOptions: yandexOptions{
			Stream:      false,
			Temperature: y.temperature,
			MaxTokens:   strconv.Itoa(y.maxTokens),
		},
	}
	if y.systemPrompt != "" {
		reqBody.Messages = append(reqBody.Messages, yandexMessage{Role: "system", Text: y.systemPrompt})
	}
	reqBody.Messages = append(reqBody.Messages, yandexMessage{Role: "user", Text: prompt})

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %w", types.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", types.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %w", types.ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", types.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", types.ErrTransport, err)
	}
	if len(out.Result.Alternatives) == 0 {
		return "", fmt.Errorf("%w: response has no alternatives", types.ErrTransport)
	}

	answer := out.Result.Alternatives[0].Message.Text
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: no answer available", types.ErrTransport)
	}
	return answer, nil
}
