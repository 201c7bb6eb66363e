package analyzer

import (
	"strings"

	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/session"
)

// overrideRule is one pure function in the Analyzer's ordered rule
// pipeline (§4.2.2). It never throws: if it does not apply it returns
// analysis unchanged.
type overrideRule func(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis

// rulePipeline is the fixed precedence order of spec §4.2.2: handoff >
// explicit transfer > strong order intent > sales stickiness > styling-only
// > sales-without-order > mixed styling+sales > styling stickiness >
// sequential safety net.
var rulePipeline = []overrideRule{
	ruleHandoffConfirmation,
	ruleExplicitTransfer,
	ruleStrongOrderIntent,
	ruleSalesStickiness,
	ruleStylingOnly,
	ruleSalesWithoutOrder,
	ruleMixedStylingSales,
	ruleStylingStickiness,
	ruleSequentialSafetyNet,
}

// ApplyOverrides runs the nine rules in precedence order over analysis,
// each rule free to rewrite RecommendedAgents/Mode/TaskPriority/
// FallbackAgent. A rule that panics is treated as a no-op for that rule
// only — the pipeline always completes.
func ApplyOverrides(msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	content := strings.ToLower(msg.Content)

	for _, rule := range rulePipeline {
		analysis = safeApply(rule, content, msg, analysis, sess)
	}
	return analysis
}

func safeApply(rule overrideRule, content string, msg message.Message, analysis *Analysis, sess *session.Session) (result *Analysis) {
	result = analysis
	defer func() {
		if r := recover(); r != nil {
			result = analysis
		}
	}()
	return rule(content, msg, analysis, sess)
}

// withRole returns a copy of r with Role/Parallel/Priority overridden.
func withRole(r RecommendedAgent, role Role, priority int, parallel bool) RecommendedAgent {
	r.Role = role
	r.Priority = priority
	r.Parallel = parallel
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// appendOthers appends every entry of existing whose AgentID is not in
// exclude and not already present in out, as parallel support at
// priority >= minPriority.
func appendOthers(out []RecommendedAgent, existing []RecommendedAgent, exclude map[string]bool, minPriority int) []RecommendedAgent {
	for _, a := range existing {
		if exclude[a.AgentID] {
			continue
		}
		dup := false
		for _, o := range out {
			if o.AgentID == a.AgentID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		out = append(out, withRole(a, RoleSupport, maxInt(minPriority, a.Priority), true))
	}
	return out
}

// ---- Rule 1: handoff confirmation ----

func ruleHandoffConfirmation(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if sess == nil || !sess.HandoffPending() {
		return analysis
	}
	target := sess.HandoffTarget()
	if target == "" {
		return analysis
	}

	confirm := containsAny(content, affirmativeKeywords)
	switch target {
	case "sales_agent":
		confirm = confirm || containsAny(content, transferToSalesKeywords)
	case "order_agent":
		confirm = confirm || containsAny(content, transferToOrderKeywords)
	case "knowledge_agent":
		confirm = confirm || containsAny(content, transferToKnowledgeKeywords)
	case "styling_agent":
		confirm = confirm || containsAny(content, transferToStylingKeywords)
	}
	if !confirm {
		return analysis
	}

	newRecommended := []RecommendedAgent{{AgentID: target, Role: RolePrimary, Priority: 1}}
	newRecommended = appendOthers(newRecommended, analysis.RecommendedAgents, map[string]bool{target: true}, 2)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeConsultation
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = target
	sess.ClearHandoff()
	return analysis
}

// ---- Rule 2: explicit transfer phrases ----

func ruleExplicitTransfer(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	var target string
	switch {
	case containsAny(content, transferToOrderKeywords):
		target = "order_agent"
	case containsAny(content, transferToKnowledgeKeywords):
		target = "knowledge_agent"
	case containsAny(content, transferToStylingKeywords):
		target = "styling_agent"
	default:
		return analysis
	}

	analysis.RecommendedAgents = []RecommendedAgent{{AgentID: target, Role: RolePrimary, Priority: 1}}
	analysis.Mode = ModeConsultation
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = target
	return analysis
}

// ---- Rule 3: strong order intent ----

func ruleStrongOrderIntent(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if !containsAny(content, orderKeywords) {
		return analysis
	}

	newRecommended := []RecommendedAgent{{AgentID: "order_agent", Role: RolePrimary, Priority: 1}}
	newRecommended = appendOthers(newRecommended, analysis.RecommendedAgents, map[string]bool{"order_agent": true}, 2)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeConsultation
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "order_agent"
	return analysis
}

// ---- Rule 4: session stickiness (sales) ----

func ruleSalesStickiness(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if sess == nil || !agentIn(sess.CurrentAgents, "sales_agent") {
		return analysis
	}
	if containsAny(content, transferToStylingKeywords) || containsAny(content, orderKeywords) {
		return analysis
	}

	existing := analysis.RecommendedAgents
	newRecommended := []RecommendedAgent{{AgentID: "sales_agent", Role: RolePrimary, Priority: 1}}

	if containsAny(content, stylingKeywords) && !hasAgentID(existing, "styling_agent") {
		newRecommended = append(newRecommended, RecommendedAgent{AgentID: "styling_agent", Role: RoleSupport, Priority: 3, Parallel: true})
	}

	newRecommended = appendKnowledgeSupport(newRecommended, existing)
	newRecommended = appendOthers(newRecommended, existing, map[string]bool{"sales_agent": true, "styling_agent": true, "knowledge_agent": true}, 3)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeConsultation
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "sales_agent"
	return analysis
}

func appendKnowledgeSupport(out []RecommendedAgent, existing []RecommendedAgent) []RecommendedAgent {
	for _, a := range existing {
		if a.AgentID == "knowledge_agent" {
			return append(out, withRole(a, RoleSupport, maxInt(2, a.Priority), true))
		}
	}
	return append(out, RecommendedAgent{AgentID: "knowledge_agent", Role: RoleSupport, Priority: 2, Parallel: true})
}

func hasAgentID(list []RecommendedAgent, id string) bool {
	for _, a := range list {
		if a.AgentID == id {
			return true
		}
	}
	return false
}

func agentIn(list []string, id string) bool {
	for _, a := range list {
		if a == id {
			return true
		}
	}
	return false
}

// ---- Rule 5: styling-only intent ----

func ruleStylingOnly(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if !containsAny(content, stylingKeywords) || containsAny(content, salesKeywords) || containsAny(content, orderKeywords) {
		return analysis
	}

	existing := analysis.RecommendedAgents
	newRecommended := []RecommendedAgent{
		{AgentID: "styling_agent", Role: RolePrimary, Priority: 1},
		{AgentID: "sales_agent", Role: RoleSupport, Priority: 2},
	}
	newRecommended = appendKnowledgeParallel(newRecommended, existing)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeSequential
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "sales_agent"
	return analysis
}

func appendKnowledgeParallel(out []RecommendedAgent, existing []RecommendedAgent) []RecommendedAgent {
	for _, a := range existing {
		if a.AgentID == "knowledge_agent" {
			return append(out, withRole(a, RoleSupport, maxInt(3, a.Priority), true))
		}
	}
	return append(out, RecommendedAgent{AgentID: "knowledge_agent", Role: RoleSupport, Priority: 3, Parallel: true})
}

// ---- Rule 6: sales intent without order ----

func ruleSalesWithoutOrder(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if !containsAny(content, salesKeywords) || containsAny(content, orderKeywords) {
		return analysis
	}

	existing := analysis.RecommendedAgents
	newRecommended := []RecommendedAgent{{AgentID: "sales_agent", Role: RolePrimary, Priority: 1}}
	newRecommended = appendKnowledgeSupport(newRecommended, existing)

	if containsAny(content, stylingKeywords) {
		newRecommended = append(newRecommended, RecommendedAgent{AgentID: "styling_agent", Role: RoleSupport, Priority: 3, Parallel: true})
	}

	newRecommended = appendOthers(newRecommended, existing, map[string]bool{"sales_agent": true}, 3)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeConsultation
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "sales_agent"
	return analysis
}

// ---- Rule 7: mixed styling + sales + no order ----

func ruleMixedStylingSales(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if !containsAny(content, stylingKeywords) || !containsAny(content, salesKeywords) || containsAny(content, orderKeywords) {
		return analysis
	}

	preferSales := (sess != nil && agentIn(sess.CurrentAgents, "sales_agent")) || containsAny(content, salesStrongKeywords)

	if preferSales {
		analysis.RecommendedAgents = []RecommendedAgent{
			{AgentID: "sales_agent", Role: RolePrimary, Priority: 1},
			{AgentID: "styling_agent", Role: RoleSupport, Priority: 2},
			{AgentID: "knowledge_agent", Role: RoleSupport, Priority: 3, Parallel: true},
		}
		analysis.Mode = ModeConsultation
	} else {
		analysis.RecommendedAgents = []RecommendedAgent{
			{AgentID: "styling_agent", Role: RolePrimary, Priority: 1},
			{AgentID: "sales_agent", Role: RoleSupport, Priority: 2},
			{AgentID: "knowledge_agent", Role: RoleSupport, Priority: 3, Parallel: true},
		}
		analysis.Mode = ModeSequential
	}
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "sales_agent"
	return analysis
}

// ---- Rule 8: session stickiness (styling) ----

func ruleStylingStickiness(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	if sess == nil || !agentIn(sess.CurrentAgents, "styling_agent") {
		return analysis
	}
	if containsAny(content, salesKeywords) || containsAny(content, orderKeywords) {
		return analysis
	}

	existing := analysis.RecommendedAgents
	newRecommended := []RecommendedAgent{{AgentID: "styling_agent", Role: RolePrimary, Priority: 1}}
	if !hasAgentID(existing, "sales_agent") {
		newRecommended = append(newRecommended, RecommendedAgent{AgentID: "sales_agent", Role: RoleSupport, Priority: 2})
	}
	newRecommended = appendOthers(newRecommended, existing, map[string]bool{"styling_agent": true, "sales_agent": true}, 3)

	analysis.RecommendedAgents = newRecommended
	analysis.Mode = ModeSequential
	analysis.TaskPriority = PriorityHigh
	analysis.FallbackAgent = "sales_agent"
	return analysis
}

// ---- Rule 9: sequential safety net ----

func ruleSequentialSafetyNet(content string, msg message.Message, analysis *Analysis, sess *session.Session) *Analysis {
	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "styling_agent" {
		return analysis
	}
	if !hasAgentID(analysis.RecommendedAgents, "sales_agent") {
		analysis.RecommendedAgents = append(analysis.RecommendedAgents, RecommendedAgent{AgentID: "sales_agent", Role: RoleSupport, Priority: 2})
	}
	analysis.Mode = ModeSequential
	return analysis
}
