package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/auraihq/aurai/internal/config"
	"github.com/auraihq/aurai/internal/logging"
	"github.com/auraihq/aurai/internal/session"
)

// Two independent timeouts guard every outbound call: connection
// establishment and the overall request. No retries, no mid-flight
// cancellation beyond the context.
const (
	connectTimeout = 30 * time.Second
	requestTimeout = 60 * time.Second
)

// Per-provider output ceilings. A caller asking for more output than the
// provider can produce is clamped silently.
const (
	openAIMaxOutputTokens = 128000
	ollamaMaxOutputTokens = 8192
)

// Factory wires provider configurations to chat clients.
type Factory struct {
	client HTTPClient
	logger *logging.Logger
}

// NewFactory builds a Factory with an optional custom HTTP client.
func NewFactory(client HTTPClient, logger *logging.Logger) *Factory {
	if client == nil {
		client = &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		}
	}
	return &Factory{client: client, logger: logger}
}

// Create instantiates the chat client for the configured provider. A
// missing credential or endpoint is a configuration error and fails here,
// before any request can be attempted.
func (f *Factory) Create(cfg config.Provider) (ChatClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("provider requires an API key")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("provider requires a base URL")
	}

	switch strings.ToLower(cfg.Name) {
	case "openai", "custom":
		return &openAIClient{
			client:  f.client,
			baseURL: base,
			cfg:     cfg,
			logger:  f.logger,
		}, nil
	case "ollama":
		return &ollamaClient{
			client:  f.client,
			baseURL: base,
			cfg:     cfg,
			logger:  f.logger,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

var _ ChatClient = (*openAIClient)(nil)
var _ ChatClient = (*ollamaClient)(nil)

func clampTokens(requested, ceiling int) int {
	if requested > ceiling {
		return ceiling
	}
	return requested
}

// openAIClient speaks the OpenAI-compatible chat completions API.
type openAIClient struct {
	client  HTTPClient
	baseURL string
	cfg     config.Provider
	logger  *logging.Logger
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequestPayload struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIResponsePayload struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Chat(ctx context.Context, userMessage, systemPrompt string, history []session.Turn) session.Response {
	messages := make([]openAIMessage, 0, len(history)+2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	for _, msg := range flattenHistory(history, c.cfg.MaxMessageTokens) {
		messages = append(messages, openAIMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: userMessage})

	payload, err := json.Marshal(openAIRequestPayload{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   clampTokens(c.cfg.MaxTokens, openAIMaxOutputTokens),
	})
	if err != nil {
		return Failure(FailureUnclassified, err.Error())
	}

	c.logger.Infof("sending request to %s, %d messages", c.baseURL, len(messages))

	body, kind, err := c.post(ctx, c.baseURL+"/chat/completions", payload)
	if err != nil {
		c.logger.Errorf("chat request failed: %v", err)
		return Failure(kind, err.Error())
	}

	var parsed openAIResponsePayload
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Failure(FailureUnclassified, fmt.Sprintf("decode response: %v", err))
	}
	if len(parsed.Choices) == 0 {
		return Failure(FailureUnclassified, "response carried no choices")
	}

	content := parsed.Choices[0].Message.Content
	c.logger.Infof("received response, %d chars", len(content))
	return Normalize(content)
}

func (c *openAIClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("list models: response %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	names := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

func (c *openAIClient) post(ctx context.Context, url string, payload []byte) ([]byte, FailureKind, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, FailureUnclassified, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, FailureUnclassified, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		kind := classifyStatus(resp.StatusCode, string(body))
		return nil, kind, fmt.Errorf("response %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, FailureUnclassified, err
	}
	return body, FailureUnclassified, nil
}

// ollamaClient speaks the generate API, which has no system role: the
// system prompt and flattened history fold into a single prompt text.
type ollamaClient struct {
	client  HTTPClient
	baseURL string
	cfg     config.Provider
	logger  *logging.Logger
}

type ollamaGeneratePayload struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *ollamaClient) Chat(ctx context.Context, userMessage, systemPrompt string, history []session.Turn) session.Response {
	prompt := foldToPrompt(systemPrompt, flattenHistory(history, c.cfg.MaxMessageTokens), userMessage)

	payload, err := json.Marshal(ollamaGeneratePayload{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
			"num_predict": clampTokens(c.cfg.MaxTokens, ollamaMaxOutputTokens),
		},
	})
	if err != nil {
		return Failure(FailureUnclassified, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return Failure(FailureUnclassified, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Errorf("generate request failed: %v", err)
		return Failure(FailureUnclassified, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		kind := classifyStatus(resp.StatusCode, string(body))
		return Failure(kind, fmt.Sprintf("response %d: %s", resp.StatusCode, string(body)))
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Failure(FailureUnclassified, fmt.Sprintf("decode response: %v", err))
	}
	if parsed.Error != "" {
		return Failure(FailureUnclassified, parsed.Error)
	}
	return Normalize(parsed.Response)
}

func (c *ollamaClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("list models: response %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
