package fuser

import (
	"strings"
	"testing"

	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/executor"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/session"
)

func TestFuse_FailedOutcomeReturnsErrorResponse(t *testing.T) {
	resp := Fuse(&executor.Outcome{Success: false}, nil)
	if resp.NextAction != message.ActionRetry || resp.Confidence != 0.5 {
		t.Errorf("unexpected error response: %+v", resp)
	}
}

func TestFuse_NilOutcome(t *testing.T) {
	resp := Fuse(nil, nil)
	if resp.NextAction != message.ActionRetry {
		t.Errorf("expected retry response for nil outcome, got %+v", resp)
	}
}

func TestFuse_SelectsPrimaryAndAttachesMetadata(t *testing.T) {
	outcome := &executor.Outcome{
		TaskID:       "t1",
		WorkflowType: analyzer.ModeParallel,
		Success:      true,
		Results: []executor.Result{
			{AgentID: "sales_agent", Role: analyzer.RolePrimary, Response: message.AgentResponse{Content: "推荐这款", Confidence: 0.9}},
			{AgentID: "knowledge_agent", Role: analyzer.RoleSupport, Response: message.AgentResponse{Content: "面料是纯棉"}},
		},
	}

	resp := Fuse(outcome, nil)
	if resp.Content != "推荐这款" {
		t.Errorf("Content = %q, want primary content unchanged", resp.Content)
	}
	info, ok := resp.Metadata["collaboration_info"].(map[string]any)
	if !ok {
		t.Fatalf("missing collaboration_info metadata: %+v", resp.Metadata)
	}
	if info["task_id"] != "t1" {
		t.Errorf("task_id = %v, want t1", info["task_id"])
	}
	contents, ok := info["support_contents"].([]SupportContent)
	if !ok || len(contents) != 1 || contents[0].AgentID != "knowledge_agent" {
		t.Errorf("support_contents = %+v", info["support_contents"])
	}
}

func TestFuse_SplicesSequentialStylingSalesContent(t *testing.T) {
	outcome := &executor.Outcome{
		TaskID:       "t2",
		WorkflowType: analyzer.ModeSequential,
		Success:      true,
		Results: []executor.Result{
			{AgentID: "styling_agent", Role: analyzer.RolePrimary, Response: message.AgentResponse{Content: "建议穿白衬衫配牛仔裤"}},
			{AgentID: "sales_agent", Role: analyzer.RoleSupport, Response: message.AgentResponse{Content: "经典白色衬衫 ¥199"}},
		},
	}

	resp := Fuse(outcome, nil)
	if !strings.Contains(resp.Content, "建议穿白衬衫配牛仔裤") || !strings.Contains(resp.Content, "经典白色衬衫 ¥199") {
		t.Errorf("expected spliced content, got %q", resp.Content)
	}
	if !strings.Contains(resp.Content, "商品推荐（销售智能体）") {
		t.Errorf("expected separator heading, got %q", resp.Content)
	}
}

func TestFuse_NoSpliceWhenNotSequentialStylingPrimary(t *testing.T) {
	outcome := &executor.Outcome{
		WorkflowType: analyzer.ModeParallel,
		Success:      true,
		Results: []executor.Result{
			{AgentID: "styling_agent", Role: analyzer.RolePrimary, Response: message.AgentResponse{Content: "建议穿白衬衫"}},
			{AgentID: "sales_agent", Role: analyzer.RoleSupport, Response: message.AgentResponse{Content: "经典白色衬衫 ¥199"}},
		},
	}
	resp := Fuse(outcome, nil)
	if strings.Contains(resp.Content, "¥199") {
		t.Errorf("should not splice sales content outside the sequential styling case, got %q", resp.Content)
	}
}

func TestFuse_RecordsHandoffOnTransfer(t *testing.T) {
	sess := session.NewStore().GetOrCreate("u1", "c1")
	outcome := &executor.Outcome{
		Success: true,
		Results: []executor.Result{
			{AgentID: "reception_agent", Role: analyzer.RolePrimary, Response: message.AgentResponse{
				Content: "好的，为您转接销售", NextAction: message.ActionTransfer, SuggestedAgents: []string{"sales"},
			}},
		},
	}

	Fuse(outcome, sess)
	if !sess.HandoffPending() || sess.HandoffTarget() != "sales_agent" {
		t.Errorf("expected handoff pending for sales_agent, got pending=%v target=%v", sess.HandoffPending(), sess.HandoffTarget())
	}
}

func TestFuse_NoPrimaryFallsBackToLastEntry(t *testing.T) {
	outcome := &executor.Outcome{
		Success: true,
		Results: []executor.Result{
			{AgentID: "a", Role: analyzer.RoleSupport, Response: message.AgentResponse{Content: "first"}},
			{AgentID: "b", Role: analyzer.RoleSupport, Response: message.AgentResponse{Content: "last"}},
		},
	}
	resp := Fuse(outcome, nil)
	if resp.Content != "last" {
		t.Errorf("Content = %q, want last entry's content", resp.Content)
	}
}
