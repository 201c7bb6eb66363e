package specialist

import (
	"context"
	"fmt"
	"regexp"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
)

var orderIDPattern = regexp.MustCompile(`\d{6,}`)

// OrderAgent answers order-status, logistics, and after-sales questions. It
// consults OrderLookup; per §6, it must remain callable even if that
// backend fails.
type OrderAgent struct {
	*baseAgent
	lookup OrderLookup
}

// NewOrderAgent builds the order specialist.
func NewOrderAgent(adapter *llm.Adapter, lookup OrderLookup) *OrderAgent {
	return &OrderAgent{
		baseAgent: &baseAgent{
			id:           "order_agent",
			caps:         []string{"order_status", "logistics", "returns"},
			systemPrompt: "你是一家服装零售客服的订单智能体。解答订单状态、物流与售后问题。",
			adapter:      adapter,
		},
		lookup: lookup,
	}
}

func (a *OrderAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	resp, err := a.converse(ctx, msg)
	if err != nil {
		return resp, err
	}

	orderID := orderIDPattern.FindString(msg.Content)
	if orderID == "" {
		return resp, nil
	}

	status, err := a.lookup.Lookup(ctx, orderID)
	if err != nil {
		return resp, nil
	}

	resp.Metadata["order_status"] = status
	resp.Content = fmt.Sprintf("%s\n%s", resp.Content, status.Status)
	return resp, nil
}
