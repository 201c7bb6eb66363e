package analyzer

import "strings"

// keywordMapping mirrors the original dispatcher's keyword_mapping table,
// used only when every configured LLM provider is unreachable (§9.1's
// supplemented "LLM outage fallback" path) — never as the normal routing
// mechanism.
var keywordMapping = []struct {
	agentID  string
	keywords []string
}{
	{"sales_agent", salesKeywords},
	{"order_agent", orderKeywords},
	{"styling_agent", stylingKeywords},
}

// fallbackKeywordRoute picks a single primary agent by keyword match alone,
// terminating at reception_agent/single when nothing matches. It is only
// ever invoked when the Analyzer's LLM call itself failed (not merely
// produced unparsable output, which is handled by parseLLMReply).
func fallbackKeywordRoute(content string) *Analysis {
	lower := strings.ToLower(content)
	for _, m := range keywordMapping {
		if containsAny(lower, m.keywords) {
			return &Analysis{
				RequiresCollaboration: false,
				Reason:                "llm_unreachable_keyword_fallback",
				Mode:                  ModeSingle,
				RecommendedAgents: []RecommendedAgent{
					{AgentID: m.agentID, Role: RolePrimary, Priority: 1},
				},
				TaskPriority:  PriorityNormal,
				FallbackAgent: m.agentID,
			}
		}
	}
	return defaultAnalysis("llm_unreachable_keyword_fallback")
}
