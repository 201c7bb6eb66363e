package analyzer

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// llmAnalysisContract is the wire shape the LLM is asked to return (§4.2.1).
// Its JSON Schema, generated below, is embedded in the system prompt so the
// contract sent to the model and the contract the parser decodes against
// can never drift apart.
type llmAnalysisContract struct {
	RequiresCollaboration bool                      `json:"requires_collaboration" jsonschema:"description=whether this turn needs more than one agent"`
	Reason                string                    `json:"reason" jsonschema:"description=short human-readable justification"`
	CollaborationMode     string                    `json:"collaboration_mode" jsonschema:"enum=single,enum=parallel,enum=sequential"`
	RecommendedAgents     []llmRecommendedAgentSpec `json:"recommended_agents" jsonschema:"minItems=1,maxItems=5"`
}

type llmRecommendedAgentSpec struct {
	AgentID string `json:"agent_id" jsonschema:"enum=reception_agent,enum=sales_agent,enum=order_agent,enum=knowledge_agent,enum=styling_agent"`
	Role    string `json:"role" jsonschema:"enum=primary,enum=support"`
}

var analysisSchemaJSON = mustAnalysisSchemaJSON()

func mustAnalysisSchemaJSON() string {
	reflector := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(&llmAnalysisContract{})
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
