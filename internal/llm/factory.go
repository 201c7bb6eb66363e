package llm

import (
	"fmt"

	"github.com/clothline/dispatch/config"
)

// BuildAdapter constructs an Adapter whose fallback chain follows
// cfg.LLMFallbackOrder, instantiating one concrete Provider per entry.
func BuildAdapter(cfg *config.Config) (*Adapter, error) {
	providers := make([]Provider, 0, len(cfg.LLMFallbackOrder))
	for _, name := range cfg.LLMFallbackOrder {
		entry, ok := cfg.LLMs[name]
		if !ok {
			return nil, fmt.Errorf("llm_fallback_order references unknown LLM %q", name)
		}
		provider, err := newProvider(entry)
		if err != nil {
			return nil, fmt.Errorf("building provider %q: %w", name, err)
		}
		providers = append(providers, provider)
	}
	return NewAdapter(providers...), nil
}

func newProvider(cfg config.LLMProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
