package specialist

import (
	"context"
	"fmt"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
)

// StylingAgent gives outfit and occasion-based styling advice. It may
// consult ProductSearch for a follow-on item suggestion; per §6, it must
// remain callable even if that backend fails.
type StylingAgent struct {
	*baseAgent
	search ProductSearch
}

// NewStylingAgent builds the styling specialist.
func NewStylingAgent(adapter *llm.Adapter, search ProductSearch) *StylingAgent {
	return &StylingAgent{
		baseAgent: &baseAgent{
			id:           "styling_agent",
			caps:         []string{"outfit_advice", "occasion_styling", "size_fit"},
			systemPrompt: "你是一家服装零售客服的穿搭智能体。根据场合与风格偏好给出搭配建议。",
			adapter:      adapter,
		},
		search: search,
	}
}

func (a *StylingAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	resp, err := a.converse(ctx, msg)
	if err != nil {
		return resp, err
	}

	products, err := a.search.Search(ctx, msg.Content)
	if err != nil || len(products) == 0 {
		return resp, nil
	}

	resp.Metadata["styling_suggestions"] = products
	resp.Content = fmt.Sprintf("%s\n可以搭配：%s", resp.Content, products[0].Name)
	return resp, nil
}
