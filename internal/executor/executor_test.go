package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clothline/dispatch/internal/agentapi"
	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/message"
)

type fakeAgent struct {
	id    string
	delay time.Duration
	err   error

	gotContent string // content of the last message Handle received
}

func (f *fakeAgent) ID() string             { return f.id }
func (f *fakeAgent) Capabilities() []string { return nil }
func (f *fakeAgent) Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error) {
	f.gotContent = msg.Content
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return message.AgentResponse{}, ctx.Err()
		}
	}
	if f.err != nil {
		return message.AgentResponse{}, f.err
	}
	return message.AgentResponse{AgentID: f.id, Content: "reply from " + f.id}, nil
}

func newTestRegistry(t *testing.T, agents ...*fakeAgent) *agentapi.Registry {
	t.Helper()
	reg := agentapi.NewRegistry()
	for _, a := range agents {
		if err := reg.Register(a); err != nil {
			t.Fatalf("Register(%s): %v", a.id, err)
		}
	}
	return reg
}

func analysisSingle(primary string) *analyzer.Analysis {
	return &analyzer.Analysis{
		Mode:              analyzer.ModeSingle,
		RecommendedAgents: []analyzer.RecommendedAgent{{AgentID: primary, Role: analyzer.RolePrimary, Priority: 1}},
	}
}

func TestExecute_SingleMode(t *testing.T) {
	reg := newTestRegistry(t, &fakeAgent{id: "reception_agent"})
	ex := New(reg, time.Second)

	msg := message.New("u1", "c1", "hi")
	results := ex.Execute(context.Background(), msg, analysisSingle("reception_agent"), nil)

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Error != "" || results[0].Response.Content != "reply from reception_agent" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestExecute_ParallelMode_PreservesOrder(t *testing.T) {
	reg := newTestRegistry(t,
		&fakeAgent{id: "sales_agent", delay: 30 * time.Millisecond},
		&fakeAgent{id: "styling_agent", delay: 5 * time.Millisecond},
		&fakeAgent{id: "knowledge_agent"},
	)
	ex := New(reg, time.Second)

	an := &analyzer.Analysis{
		Mode: analyzer.ModeParallel,
		RecommendedAgents: []analyzer.RecommendedAgent{
			{AgentID: "sales_agent", Role: analyzer.RolePrimary, Priority: 1},
			{AgentID: "styling_agent", Role: analyzer.RoleSupport, Priority: 2, Parallel: true},
			{AgentID: "knowledge_agent", Role: analyzer.RoleSupport, Priority: 3, Parallel: true},
		},
	}

	results := ex.Execute(context.Background(), message.New("u1", "c1", "hi"), an, nil)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	want := []string{"sales_agent", "styling_agent", "knowledge_agent"}
	for i, id := range want {
		if results[i].AgentID != id {
			t.Errorf("results[%d].AgentID = %q, want %q (completion order leaked into output order)", i, results[i].AgentID, id)
		}
	}
}

func TestExecute_SequentialMode_DerivesSupportMessage(t *testing.T) {
	sales := &fakeAgent{id: "sales_agent"}
	reg := newTestRegistry(t, &fakeAgent{id: "styling_agent"}, sales)
	ex := New(reg, time.Second)

	an := &analyzer.Analysis{
		Mode: analyzer.ModeSequential,
		RecommendedAgents: []analyzer.RecommendedAgent{
			{AgentID: "styling_agent", Role: analyzer.RolePrimary, Priority: 1},
			{AgentID: "sales_agent", Role: analyzer.RoleSupport, Priority: 2},
		},
	}

	results := ex.Execute(context.Background(), message.New("u1", "c1", "搭配建议"), an, nil)
	if len(results) != 2 || results[1].AgentID != "sales_agent" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if results[1].Response.Content != "reply from sales_agent" {
		t.Errorf("sales_agent should still have been invoked and replied, got %+v", results[1])
	}
	if sales.gotContent != "reply from styling_agent" {
		t.Errorf("sales_agent received content %q, want the primary's reply %q", sales.gotContent, "reply from styling_agent")
	}
}

func TestExecute_SafetyNetAppendsSales(t *testing.T) {
	reg := newTestRegistry(t, &fakeAgent{id: "styling_agent"}, &fakeAgent{id: "sales_agent"})
	ex := New(reg, time.Second)

	an := analysisSingle("styling_agent")
	an.Mode = analyzer.ModeParallel // deliberately wrong mode to exercise the override

	results := ex.Execute(context.Background(), message.New("u1", "c1", "搭配"), an, nil)
	if len(results) != 2 || results[1].AgentID != "sales_agent" {
		t.Fatalf("expected safety net to append sales_agent, got %+v", results)
	}
	if an.Mode != analyzer.ModeSequential {
		t.Errorf("expected mode forced to sequential, got %v", an.Mode)
	}
}

func TestExecute_InvocationTimeout(t *testing.T) {
	reg := newTestRegistry(t, &fakeAgent{id: "reception_agent", delay: 50 * time.Millisecond})
	ex := New(reg, 5*time.Millisecond)

	results := ex.Execute(context.Background(), message.New("u1", "c1", "hi"), analysisSingle("reception_agent"), nil)
	if len(results) != 1 || results[0].Error != "timeout" {
		t.Fatalf("expected a timeout result, got %+v", results)
	}
}

func TestExecute_AgentErrorDoesNotAbortBatch(t *testing.T) {
	reg := newTestRegistry(t,
		&fakeAgent{id: "sales_agent", err: errors.New("boom")},
		&fakeAgent{id: "knowledge_agent"},
	)
	ex := New(reg, time.Second)

	an := &analyzer.Analysis{
		Mode: analyzer.ModeParallel,
		RecommendedAgents: []analyzer.RecommendedAgent{
			{AgentID: "sales_agent", Role: analyzer.RolePrimary, Priority: 1},
			{AgentID: "knowledge_agent", Role: analyzer.RoleSupport, Priority: 2, Parallel: true},
		},
	}
	results := ex.Execute(context.Background(), message.New("u1", "c1", "hi"), an, nil)
	if results[0].Error != "boom" {
		t.Errorf("primary error = %q, want %q", results[0].Error, "boom")
	}
	if results[1].Error != "" {
		t.Errorf("support invocation should have succeeded independently, got error %q", results[1].Error)
	}
}

func TestExecute_UnknownAgentIDYieldsErrorEntry(t *testing.T) {
	reg := newTestRegistry(t)
	ex := New(reg, time.Second)

	results := ex.Execute(context.Background(), message.New("u1", "c1", "hi"), analysisSingle("reception_agent"), nil)
	if len(results) != 1 || results[0].Error == "" {
		t.Fatalf("expected an error entry for an unregistered agent, got %+v", results)
	}
}
