// Package executor implements the Workflow Executor (§4.3): it runs the
// agents a CollaborationAnalysis recommends according to the analysis's
// mode, isolating every invocation behind its own timeout so one
// misbehaving agent cannot sink the turn. Grounded on the teacher's
// workflowagent.NewParallel/NewSequential (errgroup-based fan-out with a
// derived per-branch context) and workflow/executors.go's
// capability-tagged executor shape.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clothline/dispatch/internal/agentapi"
	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/message"
)

// Result is one agent invocation's outcome. Exactly one of Response/Error
// is meaningful: a non-empty Error means the invocation failed, timed out,
// or was cancelled, and Response is the zero value.
type Result struct {
	AgentID  string
	Role     analyzer.Role
	Response message.AgentResponse
	Error    string
}

// Outcome is the CollaborationResult entity (§3): the turn-scoped record
// the Fuser reduces to a single AgentResponse.
type Outcome struct {
	TaskID       string
	WorkflowType analyzer.Mode
	Success      bool
	Results      []Result
	FinalContext map[string]any
}

// RunTask executes an analysis and wraps the results as a CollaborationResult
// (§3), ready for the Fuser. taskID identifies the CollaborationTask this
// outcome answers (§4.1 step 5 assigns one per turn).
func (e *Executor) RunTask(ctx context.Context, taskID string, msg message.Message, an *analyzer.Analysis, sessionContext map[string]any) *Outcome {
	results := e.Execute(ctx, msg, an, sessionContext)

	success := len(results) > 0 && results[0].Error == ""
	finalContext := map[string]any{}
	for _, r := range results {
		if r.Error == "" {
			for k, v := range r.Response.Metadata {
				finalContext[k] = v
			}
		}
	}

	return &Outcome{
		TaskID:       taskID,
		WorkflowType: an.Mode,
		Success:      success,
		Results:      results,
		FinalContext: finalContext,
	}
}

// Executor runs the agents named by a CollaborationAnalysis.
type Executor struct {
	agents       *agentapi.Registry
	agentTimeout time.Duration
}

// New builds an Executor over the given agent registry. agentTimeout
// bounds every individual invocation (§4.3's "Timeout per invocation").
func New(agents *agentapi.Registry, agentTimeout time.Duration) *Executor {
	return &Executor{agents: agents, agentTimeout: agentTimeout}
}

// Execute runs analysis.RecommendedAgents according to analysis.Mode and
// returns one Result per recommended agent, primary first, then supports
// in recommendation order — never completion order (§4.3).
func (e *Executor) Execute(ctx context.Context, msg message.Message, an *analyzer.Analysis, sessionContext map[string]any) []Result {
	enforceSafetyNet(an)

	primary, ok := an.Primary()
	if !ok {
		return nil
	}
	supports := supportsOf(an, primary.AgentID)

	results := make([]Result, 1+len(supports))
	results[0] = e.invoke(ctx, primary.AgentID, analyzer.RolePrimary, msg, sessionContext)

	if len(supports) == 0 {
		return results
	}

	switch an.Mode {
	case analyzer.ModeSequential:
		derived := deriveSequentialMessage(msg, primary.AgentID, results[0])
		e.runConcurrent(ctx, supports, derived, sessionContext, results[1:])
	default: // parallel, consultation, and single-with-stray-supports all fan out on the original message
		e.runConcurrent(ctx, supports, msg, sessionContext, results[1:])
	}
	return results
}

func supportsOf(an *analyzer.Analysis, primaryID string) []analyzer.RecommendedAgent {
	var out []analyzer.RecommendedAgent
	for _, a := range an.RecommendedAgents {
		if a.AgentID == primaryID {
			continue
		}
		out = append(out, a)
	}
	return out
}

// enforceSafetyNet re-applies §4.2.2 rule 9 at execution time: some
// upstream path (a raw LLM analysis that skipped ApplyOverrides, a future
// caller) may still hand the executor a styling-primary analysis without
// sales support. The executor is the last line of defense for this
// invariant, per §4.3's explicit callout.
func enforceSafetyNet(an *analyzer.Analysis) {
	primary, ok := an.Primary()
	if !ok || primary.AgentID != "styling_agent" {
		return
	}
	if an.HasAgent("sales_agent") {
		return
	}
	an.RecommendedAgents = append(an.RecommendedAgents, analyzer.RecommendedAgent{
		AgentID: "sales_agent", Role: analyzer.RoleSupport, Priority: 2,
	})
	an.Mode = analyzer.ModeSequential
}

// deriveSequentialMessage builds the message a sequential support agent
// sees: primary's response content as the new content, with metadata
// pointing back at the primary's response and the original message.
func deriveSequentialMessage(original message.Message, primaryID string, primaryResult Result) message.Message {
	if primaryResult.Error != "" {
		return original
	}
	derived := original
	derived.Content = primaryResult.Response.Content
	derived.Metadata = map[string]any{
		"source_agent":     primaryID,
		"primary_response": primaryResult.Response,
		"original_message": original,
	}
	return derived
}

// runConcurrent invokes each of supports concurrently, writing result i
// into out[i] so ordering reflects recommendation order regardless of
// completion order. A caller-cancelled ctx yields error=cancelled entries
// for whichever invocations had not yet completed.
func (e *Executor) runConcurrent(ctx context.Context, supports []analyzer.RecommendedAgent, msg message.Message, sessionContext map[string]any, out []Result) {
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range supports {
		i, a := i, a
		g.Go(func() error {
			out[i] = e.invoke(gctx, a.AgentID, a.Role, msg, sessionContext)
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i].AgentID == "" {
			out[i] = Result{AgentID: supports[i].AgentID, Role: supports[i].Role, Error: "cancelled"}
		}
	}
}

// invoke runs a single agent under its own timeout, converting any error,
// timeout, or panic into an error-flavored Result rather than aborting the
// batch (§4.3's per-invocation contract).
func (e *Executor) invoke(ctx context.Context, agentID string, role analyzer.Role, msg message.Message, sessionContext map[string]any) (res Result) {
	res.AgentID = agentID
	res.Role = role

	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	ag, err := e.agents.MustGet(agentID)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	invokeCtx, cancel := context.WithTimeout(ctx, e.agentTimeout)
	defer cancel()

	reply, err := ag.Handle(invokeCtx, msg, sessionContext)
	if err != nil {
		if invokeCtx.Err() == context.DeadlineExceeded {
			res.Error = "timeout"
		} else if ctx.Err() != nil {
			res.Error = "cancelled"
		} else {
			res.Error = err.Error()
		}
		return res
	}
	res.Response = reply
	return res
}
