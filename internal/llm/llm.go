// Package llm provides the LLM adapter facade consumed by the analyzer and
// by specialist agents: chat(messages, model, params) -> text with internal
// provider fallback (spec §6's "LLM adapter" collaborator interface).
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clothline/dispatch/logger"
)

// ChatMessage is one turn of the conversation sent to the provider.
type ChatMessage struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ChatRequest is the provider-agnostic request shape.
type ChatRequest struct {
	Messages    []ChatMessage
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatReply is the provider-agnostic response shape.
type ChatReply struct {
	Content string
	Usage   int // total tokens reported by the provider, 0 if unknown
	Latency time.Duration
	Success bool
	Error   string
}

// Provider is one backing LLM service (anthropic, openai, ollama, ...).
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatReply, error)
}

// Adapter is the facade the rest of the core depends on. It holds an
// ordered fallback chain of Providers and tries them in order, exactly as
// §6 requires ("Adapter MUST implement provider fallback internally").
type Adapter struct {
	providers []Provider
}

// NewAdapter builds an Adapter over the given providers, tried in the given
// order on failure.
func NewAdapter(providers ...Provider) *Adapter {
	return &Adapter{providers: providers}
}

// ErrNoProviders is returned when an Adapter has no configured providers.
var ErrNoProviders = errors.New("llm: no providers configured")

// Chat tries each provider in order, returning the first reply with
// Success=true. If every provider fails, it returns the last error,
// wrapped with the name of the provider that produced it.
func (a *Adapter) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	if len(a.providers) == 0 {
		return ChatReply{}, ErrNoProviders
	}

	var lastErr error
	for _, p := range a.providers {
		start := time.Now()
		reply, err := p.Chat(ctx, req)
		reply.Latency = time.Since(start)

		if err == nil && reply.Success {
			return reply, nil
		}

		if err == nil {
			err = fmt.Errorf("provider reported failure: %s", reply.Error)
		}
		logger.GetLogger().Warn("llm provider failed, trying next",
			"provider", p.Name(), "error", err)
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)

		if ctx.Err() != nil {
			return ChatReply{}, ctx.Err()
		}
	}
	return ChatReply{}, fmt.Errorf("llm: all providers exhausted: %w", lastErr)
}
