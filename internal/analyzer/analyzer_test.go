package analyzer

import (
	"testing"

	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/session"
)

func TestParseLLMReply_WellFormed(t *testing.T) {
	raw := `{"requires_collaboration":true,"reason":"sales intent","collaboration_mode":"single","recommended_agents":[{"agent_id":"sales_agent","role":"primary"}]}`
	a := parseLLMReply(raw)
	primary, ok := a.Primary()
	if !ok || primary.AgentID != "sales_agent" {
		t.Fatalf("expected sales_agent primary, got %+v (ok=%v)", primary, ok)
	}
}

func TestParseLLMReply_PrefixAndSuffixNoise(t *testing.T) {
	raw := "这是我的分析：\n" +
		`{"requires_collaboration":false,"reason":"ok","collaboration_mode":"single","recommended_agents":[{"agent_id":"reception_agent","role":"primary"}]}` +
		"\n谢谢。"
	a := parseLLMReply(raw)
	primary, ok := a.Primary()
	if !ok || primary.AgentID != "reception_agent" {
		t.Fatalf("expected reception_agent primary, got %+v (ok=%v)", primary, ok)
	}
}

func TestParseLLMReply_TruncatedJSON(t *testing.T) {
	raw := `{"requires_collaboration":false,"reason":"ok","collaboration_mode":"single","recommended_agents":[{"agent_id":"sales_agent","role":"primary"}`
	a := parseLLMReply(raw)
	if a.Mode != ModeSingle {
		t.Fatalf("expected a usable analysis from the repaired JSON, got %+v", a)
	}
}

func TestParseLLMReply_Garbage(t *testing.T) {
	a := parseLLMReply("not json at all")
	primary, ok := a.Primary()
	if !ok || primary.AgentID != "reception_agent" || a.Reason != "fallback" {
		t.Fatalf("expected default fallback analysis, got %+v", a)
	}
}

func TestParseLLMReply_UnknownAgentIDDropped(t *testing.T) {
	raw := `{"requires_collaboration":false,"reason":"ok","collaboration_mode":"single","recommended_agents":[{"agent_id":"unknown_agent","role":"primary"},{"agent_id":"sales_agent","role":"support"}]}`
	a := parseLLMReply(raw)
	primary, ok := a.Primary()
	if !ok || primary.AgentID != "sales_agent" {
		t.Fatalf("expected sales_agent promoted to primary after dropping unknown id, got %+v (ok=%v)", primary, ok)
	}
}

func baseAnalysisWith(agentID string) *Analysis {
	return &Analysis{
		Mode:              ModeSingle,
		RecommendedAgents: []RecommendedAgent{{AgentID: agentID, Role: RolePrimary, Priority: 1}},
		TaskPriority:      PriorityNormal,
		FallbackAgent:     agentID,
	}
}

func TestApplyOverrides_HandoffConfirmation(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	sess.SetHandoff("sales_agent")

	msg := message.New("u1", "c1", "好的")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "sales_agent" {
		t.Fatalf("expected handoff confirmation to force sales_agent primary, got %+v", analysis)
	}
	if sess.HandoffPending() {
		t.Error("handoff_pending should be cleared after confirmation")
	}
}

func TestApplyOverrides_ExplicitTransfer(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	msg := message.New("u1", "c1", "帮我转订单智能体")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "order_agent" {
		t.Fatalf("expected order_agent primary on explicit transfer phrase, got %+v", analysis)
	}
}

func TestApplyOverrides_OrderKeywordOverridesStickiness(t *testing.T) {
	// B4 / scenario 4: order intent takes precedence over sales stickiness.
	sess := session.NewStore().GetOrCreate("u1", "c1")
	sess.SetCurrentAgents([]string{"sales_agent"})

	msg := message.New("u1", "c1", "我要查询我的订单物流")
	analysis := ApplyOverrides(msg, baseAnalysisWith("sales_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "order_agent" {
		t.Fatalf("expected order_agent primary despite sales stickiness, got %+v", analysis)
	}
}

func TestApplyOverrides_SalesStickiness(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	sess.SetCurrentAgents([]string{"sales_agent"})

	msg := message.New("u1", "c1", "这件衣服怎么样")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "sales_agent" {
		t.Fatalf("expected sales stickiness to keep sales_agent primary, got %+v", analysis)
	}
	if analysis.Mode != ModeConsultation {
		t.Errorf("expected consultation mode, got %v", analysis.Mode)
	}
}

func TestApplyOverrides_StylingOnlyTriggersSafetyNet(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	msg := message.New("u1", "c1", "这套搭配适合约会穿吗")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "styling_agent" {
		t.Fatalf("expected styling_agent primary, got %+v", analysis)
	}
	if !analysis.HasAgent("sales_agent") {
		t.Error("expected sales_agent present as sequential support per the styling-only rule")
	}
	if analysis.Mode != ModeSequential {
		t.Errorf("expected sequential mode, got %v", analysis.Mode)
	}
}

func TestApplyOverrides_MixedStylingSalesPrefersSalesWhenSticky(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	sess.SetCurrentAgents([]string{"sales_agent"})

	msg := message.New("u1", "c1", "这件衣服搭配什么裤子比较好看，我想买")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "sales_agent" {
		t.Fatalf("expected sales_agent primary under sales stickiness, got %+v", analysis)
	}
	if analysis.Mode != ModeConsultation {
		t.Errorf("expected consultation mode, got %v", analysis.Mode)
	}
}

func TestApplyOverrides_MixedStylingSalesPrefersStylingOtherwise(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	msg := message.New("u1", "c1", "这件衣服搭配什么裤子比较好看")
	analysis := ApplyOverrides(msg, baseAnalysisWith("reception_agent"), sess)

	primary, ok := analysis.Primary()
	if !ok || primary.AgentID != "styling_agent" {
		t.Fatalf("expected styling_agent primary without a stickiness/strong-sales tiebreak, got %+v", analysis)
	}
	if analysis.Mode != ModeSequential {
		t.Errorf("expected sequential mode, got %v", analysis.Mode)
	}
}

func TestFallbackKeywordRoute(t *testing.T) {
	a := fallbackKeywordRoute("我想查一下订单物流")
	primary, ok := a.Primary()
	if !ok || primary.AgentID != "order_agent" {
		t.Fatalf("expected order_agent from keyword fallback, got %+v", a)
	}

	a = fallbackKeywordRoute("随便聊聊")
	primary, ok = a.Primary()
	if !ok || primary.AgentID != "reception_agent" {
		t.Fatalf("expected reception_agent default from keyword fallback, got %+v", a)
	}
}
