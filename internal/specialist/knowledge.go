package specialist

import "github.com/clothline/dispatch/internal/llm"

// KnowledgeAgent answers fabric, material, and garment-care questions. It
// has no external backend — it is pure LLM conversation.
type KnowledgeAgent struct {
	*baseAgent
}

// NewKnowledgeAgent builds the knowledge specialist.
func NewKnowledgeAgent(adapter *llm.Adapter) *KnowledgeAgent {
	return &KnowledgeAgent{baseAgent: &baseAgent{
		id:           "knowledge_agent",
		caps:         []string{"fabric_care", "material_info", "washing_instructions"},
		systemPrompt: "你是一家服装零售客服的知识智能体。解答面料、材质与保养洗涤相关问题。",
		adapter:      adapter,
	}}
}
