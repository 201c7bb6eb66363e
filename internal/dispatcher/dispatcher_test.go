package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clothline/dispatch/internal/agentapi"
	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/executor"
	"github.com/clothline/dispatch/internal/llm"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/metrics"
	"github.com/clothline/dispatch/internal/session"
)

type fakeAgent struct {
	id      string
	content string
	err     error
}

func (f *fakeAgent) ID() string             { return f.id }
func (f *fakeAgent) Capabilities() []string { return nil }
func (f *fakeAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	if f.err != nil {
		return message.AgentResponse{}, f.err
	}
	return message.AgentResponse{AgentID: f.id, Content: f.content, NextAction: message.ActionContinue}, nil
}

func newTestDispatcher(t *testing.T, agents ...*fakeAgent) *Dispatcher {
	t.Helper()
	reg := agentapi.NewRegistry()
	for _, a := range agents {
		if err := reg.Register(a); err != nil {
			t.Fatalf("Register(%s): %v", a.id, err)
		}
	}
	an := analyzer.NewAnalyzer(llm.NewAdapter()) // no providers: every analysis falls back to keyword routing
	ex := executor.New(reg, time.Second)
	met := metrics.New(nil)
	store := session.NewStore()
	return New(store, an, reg, ex, met, nil, 5*time.Second)
}

func TestProcessTurn_RoutesByKeywordFallback(t *testing.T) {
	d := newTestDispatcher(t,
		&fakeAgent{id: "sales_agent", content: "推荐几款衣服给您"},
		&fakeAgent{id: "reception_agent", content: "您好，请问需要什么帮助"},
	)

	msg := message.New("u1", "c1", "我想买衣服")
	resp, err := d.ProcessTurn(context.Background(), "u1", msg)
	if err != nil {
		t.Fatalf("ProcessTurn error: %v", err)
	}
	if resp.AgentID != "sales_agent" {
		t.Errorf("AgentID = %q, want sales_agent", resp.AgentID)
	}
}

func TestProcessTurn_InvalidMessageReturnsError(t *testing.T) {
	d := newTestDispatcher(t, &fakeAgent{id: "reception_agent", content: "hi"})
	_, err := d.ProcessTurn(context.Background(), "u1", message.Message{})
	if err == nil {
		t.Fatal("expected an error for an invalid message")
	}
}

func TestProcessTurn_SameConversationSerializesUnderSessionLock(t *testing.T) {
	d := newTestDispatcher(t, &fakeAgent{id: "reception_agent", content: "hi"})

	done := make(chan struct{})
	go func() {
		d.ProcessTurn(context.Background(), "u1", message.New("u1", "c1", "你好"))
		close(done)
	}()
	d.ProcessTurn(context.Background(), "u1", message.New("u1", "c1", "在吗"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent turns on the same conversation did not both complete")
	}
}

func TestProcessTurn_CancelledContextFallsBackToReception(t *testing.T) {
	d := newTestDispatcher(t, &fakeAgent{id: "reception_agent", content: "人工客服会尽快为您处理"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := d.ProcessTurn(ctx, "u1", message.New("u1", "c1", "你好"))
	if err != nil {
		t.Fatalf("ProcessTurn should absorb the cancellation, got error: %v", err)
	}
	if resp.AgentID != "reception_agent" {
		t.Errorf("expected fallback to reception_agent, got %+v", resp)
	}
}

// TestProcessTurn_DoubleFailureReturnsSystemSentinel exercises the
// last-resort branch of fallbackTurn: runTurn fails (a cancelled context)
// and the reception-agent fallback also fails (no reception_agent
// registered at all). The hardcoded response must still carry a non-empty,
// known AgentID (P1, P5) rather than leaving it "".
func TestProcessTurn_DoubleFailureReturnsSystemSentinel(t *testing.T) {
	d := newTestDispatcher(t, &fakeAgent{id: "sales_agent", content: "推荐几款衣服给您"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := d.ProcessTurn(ctx, "u1", message.New("u1", "c1", "你好"))
	if err != nil {
		t.Fatalf("ProcessTurn should absorb the double failure, got error: %v", err)
	}
	if resp.AgentID != "system" {
		t.Errorf("AgentID = %q, want the \"system\" sentinel", resp.AgentID)
	}
	if !resp.RequiresHuman {
		t.Errorf("last-resort response should request human handoff, got %+v", resp)
	}
}

// TestRecordMetrics_AttributesEveryResultNotJustPrimary guards against
// recordMetrics only updating the fused primary agent's stats: every entry
// in a turn's executor.Result list must accumulate its own
// metrics.AgentStats, keyed by its own success/error status, matching
// _update_performance_stats looping over every collaboration result.
func TestRecordMetrics_AttributesEveryResultNotJustPrimary(t *testing.T) {
	d := newTestDispatcher(t, &fakeAgent{id: "styling_agent"}, &fakeAgent{id: "sales_agent"})

	response := message.AgentResponse{
		AgentID: "styling_agent",
		Metadata: map[string]any{
			"collaboration_info": map[string]any{
				"workflow_type":        analyzer.Mode("sequential"),
				"participating_agents": []string{"styling_agent", "sales_agent"},
			},
		},
	}
	results := []executor.Result{
		{AgentID: "styling_agent", Role: "primary"},
		{AgentID: "sales_agent", Role: "support", Error: errors.New("timeout").Error()},
	}

	d.recordMetrics(response, results, 10*time.Millisecond, true)

	snap := d.metrics.Snapshot()
	primary, ok := snap.AgentStats["styling_agent"]
	if !ok || primary.TotalCalls != 1 || primary.SuccessCalls != 1 {
		t.Errorf("styling_agent stats = %+v, want 1 total, 1 success", primary)
	}
	support, ok := snap.AgentStats["sales_agent"]
	if !ok || support.TotalCalls != 1 || support.SuccessCalls != 0 {
		t.Errorf("sales_agent stats = %+v, want 1 total, 0 success (its result entry carries an error)", support)
	}
}
