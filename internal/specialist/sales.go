package specialist

import (
	"context"
	"fmt"

	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
)

// SalesAgent recommends products and handles purchase intent. It consults
// ProductSearch for catalog hits; per §6, it must remain callable even if
// that backend fails.
type SalesAgent struct {
	*baseAgent
	search ProductSearch
}

// NewSalesAgent builds the sales specialist.
func NewSalesAgent(adapter *llm.Adapter, search ProductSearch) *SalesAgent {
	return &SalesAgent{
		baseAgent: &baseAgent{
			id:           "sales_agent",
			caps:         []string{"product_recommendation", "pricing", "promotions"},
			systemPrompt: "你是一家服装零售客服的销售智能体。基于顾客需求推荐商品并说明价格与优惠。",
			adapter:      adapter,
		},
		search: search,
	}
}

func (a *SalesAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	resp, err := a.converse(ctx, msg)
	if err != nil {
		return resp, err
	}

	products, err := a.search.Search(ctx, msg.Content)
	if err != nil || len(products) == 0 {
		return resp, nil
	}

	resp.Metadata["recommended_products"] = products
	resp.Content = fmt.Sprintf("%s\n推荐商品：%s（¥%.2f）", resp.Content, products[0].Name, products[0].Price)
	return resp, nil
}
