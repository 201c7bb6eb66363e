package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clothline/dispatch/config"
	"github.com/clothline/dispatch/utils"
)

// OllamaProvider implements Provider for a local Ollama server.
type OllamaProvider struct {
	cfg    config.LLMProviderConfig
	client *http.Client
}

// NewOllamaProvider builds a provider from an LLM config entry.
func NewOllamaProvider(cfg config.LLMProviderConfig) *OllamaProvider {
	return &OllamaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

func (p *OllamaProvider) Name() string { return "ollama:" + p.cfg.Model }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature,omitempty"`
	} `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	messages := make([]ollamaMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	payload := ollamaRequest{Model: model, Messages: messages, Stream: false}
	payload.Options.Temperature = req.Temperature

	body, err := json.Marshal(payload)
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode request: %w", err)
	}

	host := p.cfg.Host
	if host == "" {
		host = "http://localhost:11434"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return ChatReply{}, &RetryableError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatReply{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ChatReply{}, &RetryableError{StatusCode: resp.StatusCode, Message: string(raw)}
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ChatReply{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return ChatReply{Success: false, Error: parsed.Error}, nil
	}

	// Ollama's /api/chat does not report token usage; estimate it so
	// callers still get a comparable Usage figure across providers.
	return ChatReply{Content: parsed.Message.Content, Success: true, Usage: utils.EstimateTokens(parsed.Message.Content)}, nil
}
