package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// extractJSONObject locates the first '{' ... matching '}' substring in
// raw, honoring string literals so braces inside quoted text don't throw
// off the bracket count (§4.2.1's "locates the first { ... matching }
// substring").
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// balanceBraces appends any closing brackets/braces/quotes a stack scan
// implies are missing, a single best-effort repair pass for truncated
// model output (§4.2.1's "single-pass brace/quote balancing").
func balanceBraces(raw string) string {
	var stack []byte
	inString := false
	escaped := false
	for _, c := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if n := len(stack); n > 0 && stack[n-1] == byte(c) {
				stack = stack[:n-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(raw)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// parseLLMReply defensively decodes the model's reply into an Analysis.
// It never returns an error: on any failure it returns defaultAnalysis.
func parseLLMReply(raw string) *Analysis {
	obj, ok := extractJSONObject(raw)
	if !ok {
		start := strings.IndexByte(raw, '{')
		if start < 0 {
			return defaultAnalysis("fallback")
		}
		obj = raw[start:]
	}

	contract, err := decodeContract(obj)
	if err != nil {
		repaired := balanceBraces(obj)
		contract, err = decodeContract(repaired)
		if err != nil {
			return defaultAnalysis("fallback")
		}
	}

	return validateContract(contract)
}

func decodeContract(obj string) (*llmAnalysisContract, error) {
	var generic map[string]any
	if err := json.Unmarshal([]byte(obj), &generic); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	var contract llmAnalysisContract
	if err := mapstructure.Decode(generic, &contract); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &contract, nil
}

var knownAgentIDs = map[string]bool{
	"reception_agent": true,
	"sales_agent":     true,
	"order_agent":     true,
	"knowledge_agent": true,
	"styling_agent":   true,
}

// validateContract enforces §4.2.1/§4.2.3: exactly one primary, unknown
// agent_ids dropped, empty result replaced by the default, every entry
// given a sequential priority, parallel defaulted false.
func validateContract(c *llmAnalysisContract) *Analysis {
	var recommended []RecommendedAgent
	primaryIndex := -1
	for _, spec := range c.RecommendedAgents {
		if !knownAgentIDs[spec.AgentID] {
			continue
		}
		role := RoleSupport
		if spec.Role == "primary" {
			role = RolePrimary
		}
		recommended = append(recommended, RecommendedAgent{AgentID: spec.AgentID, Role: role})
	}
	if len(recommended) == 0 {
		return defaultAnalysis("fallback")
	}

	for i, a := range recommended {
		if a.Role == RolePrimary {
			if primaryIndex == -1 {
				primaryIndex = i
			} else {
				recommended[i].Role = RoleSupport
			}
		}
	}
	if primaryIndex == -1 {
		recommended[0].Role = RolePrimary
		primaryIndex = 0
	}

	priority := 2
	for i := range recommended {
		if i == primaryIndex {
			recommended[i].Priority = 1
		} else {
			recommended[i].Priority = priority
			priority++
		}
		recommended[i].Parallel = false
	}

	mode := ModeSingle
	switch c.CollaborationMode {
	case string(ModeParallel):
		mode = ModeParallel
	case string(ModeSequential):
		mode = ModeSequential
	case string(ModeConsultation):
		mode = ModeConsultation
	}

	return &Analysis{
		RequiresCollaboration: c.RequiresCollaboration,
		Reason:                c.Reason,
		Mode:                  mode,
		RecommendedAgents:     recommended,
		TaskPriority:          PriorityNormal,
		FallbackAgent:         "reception_agent",
	}
}
