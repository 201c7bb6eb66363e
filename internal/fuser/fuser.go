// Package fuser implements the Response Fuser (§4.4): it reduces a
// CollaborationResult (executor.Outcome) down to the single AgentResponse
// the dispatcher returns to its caller, and it is where handoff intent for
// the *next* turn gets recorded onto the session.
package fuser

import (
	"fmt"

	"github.com/clothline/dispatch/internal/executor"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/session"
)

// SupportContent is one support agent's contribution, carried in the fused
// response's metadata for observability even when it isn't spliced into
// the main content (§4.4 step 4).
type SupportContent struct {
	AgentID string
	Content string
}

// salesSplitHeading is the one automatic content-concatenation case (§4.4
// step 4): a sequential styling->sales handoff appends the sales agent's
// recommendation under this heading.
const salesSplitHeading = "\n\n——\n商品推荐（销售智能体）：\n%s"

// normalizeAgentID maps loose agent-name fragments an LLM might suggest
// (bare "sales", Chinese "订单", ...) onto a canonical *_agent id. Unknown
// input passes through unchanged.
func normalizeAgentID(raw string) string {
	switch raw {
	case "sales", "sales_agent":
		return "sales_agent"
	case "order", "订单", "order_agent":
		return "order_agent"
	case "knowledge", "knowledge_agent":
		return "knowledge_agent"
	case "styling", "穿搭", "styling_agent":
		return "styling_agent"
	case "reception", "reception_agent":
		return "reception_agent"
	default:
		return raw
	}
}

var knownAgentIDs = map[string]bool{
	"reception_agent": true,
	"sales_agent":     true,
	"order_agent":     true,
	"knowledge_agent": true,
	"styling_agent":   true,
}

// Fuse reduces outcome to one AgentResponse and, on a transfer signal,
// records the pending handoff onto sess for the next turn to consume
// (§4.4 step 6). sess may be nil in tests that don't need handoff capture.
func Fuse(outcome *executor.Outcome, sess *session.Session) message.AgentResponse {
	if outcome == nil || !outcome.Success || len(outcome.Results) == 0 {
		return errorResponse(outcome)
	}

	primary, primaryIdx := selectPrimary(outcome.Results)
	if primary.Error != "" {
		return errorResponse(outcome)
	}

	response := primary.Response.Clone()

	supportContents := collectSupportContents(outcome.Results, primaryIdx)
	response.Content = maybeSpliceSalesContent(response.Content, outcome, primary.AgentID, supportContents)

	attachCollaborationMetadata(&response, outcome, supportContents)

	if sess != nil {
		recordHandoffIfRequested(response, sess)
	}

	return response
}

func errorResponse(outcome *executor.Outcome) message.AgentResponse {
	metadata := map[string]any{}
	if outcome != nil {
		metadata["collaboration_result"] = outcome
	}
	return message.AgentResponse{
		AgentID:    "system",
		Content:    "抱歉，处理您的请求时遇到了问题",
		Confidence: 0.5,
		NextAction: message.ActionRetry,
		Metadata:   metadata,
	}
}

// selectPrimary returns the entry with role=primary, or the last entry if
// none carries that role (§4.4 step 2).
func selectPrimary(results []executor.Result) (executor.Result, int) {
	for i, r := range results {
		if r.Role == "primary" {
			return r, i
		}
	}
	return results[len(results)-1], len(results) - 1
}

func collectSupportContents(results []executor.Result, primaryIdx int) []SupportContent {
	var out []SupportContent
	for i, r := range results {
		if i == primaryIdx || r.Error != "" {
			continue
		}
		out = append(out, SupportContent{AgentID: r.AgentID, Content: r.Response.Content})
	}
	return out
}

// maybeSpliceSalesContent implements §4.4 step 4's single automatic
// concatenation case.
func maybeSpliceSalesContent(content string, outcome *executor.Outcome, primaryID string, supportContents []SupportContent) string {
	if outcome.WorkflowType != "sequential" || primaryID != "styling_agent" {
		return content
	}
	for _, sc := range supportContents {
		if sc.AgentID == "sales_agent" && sc.Content != "" {
			return content + fmt.Sprintf(salesSplitHeading, sc.Content)
		}
	}
	return content
}

func attachCollaborationMetadata(response *message.AgentResponse, outcome *executor.Outcome, supportContents []SupportContent) {
	if response.Metadata == nil {
		response.Metadata = map[string]any{}
	}
	participating := make([]string, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		participating = append(participating, r.AgentID)
	}
	response.Metadata["collaboration_info"] = map[string]any{
		"task_id":               outcome.TaskID,
		"workflow_type":         outcome.WorkflowType,
		"participating_agents":  participating,
		"collaboration_success": outcome.Success,
		"support_contents":      supportContents,
	}
}

func recordHandoffIfRequested(response message.AgentResponse, sess *session.Session) {
	if response.NextAction != message.ActionTransfer || len(response.SuggestedAgents) == 0 {
		return
	}
	target := normalizeAgentID(response.SuggestedAgents[0])
	if !knownAgentIDs[target] {
		return
	}
	sess.SetHandoff(target)
}
