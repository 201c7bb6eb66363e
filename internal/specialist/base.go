package specialist

import (
	"context"
	"fmt"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
)

// baseAgent is the shared shape every specialist builds on: an id, an
// advertised capability list (exposed only through Capabilities(); it is
// not part of the analyzer's prompt, not reported on /stats and not used
// by routing), and a system prompt sent to the shared LLM adapter.
type baseAgent struct {
	id           string
	caps         []string
	systemPrompt string
	adapter      *llm.Adapter
}

func (b *baseAgent) ID() string             { return b.id }
func (b *baseAgent) Capabilities() []string { return append([]string(nil), b.caps...) }

// converse sends the system prompt plus the user message to the LLM
// adapter and wraps the reply as a default, continue-flavored response.
// Concrete agents call this and then apply their own lightweight
// post-processing (suggesting a transfer, decorating metadata, ...).
func (b *baseAgent) converse(ctx context.Context, msg message.Message) (message.AgentResponse, error) {
	reply, err := b.adapter.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: b.systemPrompt},
			{Role: "user", Content: msg.Content},
		},
		Temperature: 0.3,
		MaxTokens:   512,
	})
	if err != nil {
		return message.AgentResponse{}, fmt.Errorf("%s: %w", b.id, err)
	}

	content := reply.Content
	if content == "" {
		content = "好的，我来为您处理。"
	}

	return message.AgentResponse{
		Content:    content,
		AgentID:    b.id,
		Confidence: 0.85,
		NextAction: message.ActionContinue,
		Metadata:   map[string]any{},
	}, nil
}

// Handle is the default Agent implementation: a plain LLM conversation
// with no post-processing. Specialists that need more (suggesting a
// transfer, attaching product lookups, ...) shadow it with their own
// Handle defined directly on the concrete type.
func (b *baseAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	return b.converse(ctx, msg)
}
