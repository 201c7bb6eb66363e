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
)

// OpenAIProvider implements Provider for the OpenAI-compatible chat
// completions API (also used by many local/self-hosted gateways).
type OpenAIProvider struct {
	cfg    config.LLMProviderConfig
	client *http.Client
}

// NewOpenAIProvider builds a provider from an LLM config entry.
func NewOpenAIProvider(cfg config.LLMProviderConfig) *OpenAIProvider {
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

func (p *OpenAIProvider) Name() string { return "openai:" + p.cfg.Model }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	messages := make([]openAIMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	host := p.cfg.Host
	if host == "" {
		host = "https://api.openai.com"
	}

	body, err := json.Marshal(openAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return ChatReply{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		host+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+p.cfg.APIKey)

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
		return ChatReply{}, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(raw),
			RetryAfter: parseRetryAfter(resp.Header),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ChatReply{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return ChatReply{Success: false, Error: parsed.Error.Message}, nil
	}
	if len(parsed.Choices) == 0 {
		return ChatReply{Success: false, Error: "empty choices"}, nil
	}

	return ChatReply{
		Content: parsed.Choices[0].Message.Content,
		Usage:   parsed.Usage.TotalTokens,
		Success: true,
	}, nil
}
