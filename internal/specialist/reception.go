package specialist

import (
	"context"
	"strings"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
)

// ReceptionAgent greets the customer, triages intent, and suggests a
// transfer to another specialist when the conversation clearly belongs
// elsewhere. The transfer suggestion is this agent's own internal
// heuristic — opaque to the core per §4.5 — not the Analyzer's routing.
type ReceptionAgent struct {
	*baseAgent
}

// NewReceptionAgent builds the reception specialist.
func NewReceptionAgent(adapter *llm.Adapter) *ReceptionAgent {
	return &ReceptionAgent{baseAgent: &baseAgent{
		id:   "reception_agent",
		caps: []string{"greeting", "triage", "handoff"},
		systemPrompt: "你是一家服装零售客服的接待智能体。热情问候顾客，了解其诉求，" +
			"如果更适合由其它专业智能体处理，简要说明并建议转接。",
		adapter: adapter,
	}}
}

var receptionTransferHints = map[string][]string{
	"sales_agent":     {"买", "购买", "推荐", "价格"},
	"order_agent":     {"订单", "物流", "快递", "退货"},
	"styling_agent":   {"搭配", "穿搭", "风格"},
	"knowledge_agent": {"面料", "材质", "保养", "洗涤"},
}

func (a *ReceptionAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	resp, err := a.converse(ctx, msg)
	if err != nil {
		return resp, err
	}

	content := strings.ToLower(msg.Content)
	for target, hints := range receptionTransferHints {
		for _, hint := range hints {
			if strings.Contains(content, hint) {
				resp.NextAction = message.ActionTransfer
				resp.SuggestedAgents = []string{target}
				return resp, nil
			}
		}
	}
	return resp, nil
}
