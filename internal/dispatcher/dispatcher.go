// Package dispatcher implements the top-level orchestrator (§4.1): one
// process_turn call end-to-end, wiring the Analyzer, Executor, Fuser, and
// Session Store, with a reception-agent fallback path and a hardcoded
// last-resort response so no turn ever returns a naked error to its
// caller. Grounded on agent/agent.go's build-strategy -> execute -> collect
// shape and the original SmartAgentDispatcher.process_message.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/clothline/dispatch/internal/agentapi"
	"github.com/clothline/dispatch/internal/analyzer"
	"github.com/clothline/dispatch/internal/executor"
	"github.com/clothline/dispatch/internal/fuser"
	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/internal/metrics"
	"github.com/clothline/dispatch/internal/session"
	"github.com/clothline/dispatch/internal/telemetry"
	"github.com/clothline/dispatch/logger"

	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher drives turns end-to-end. One Dispatcher is shared by every
// conversation; turns from distinct conversations run concurrently, turns
// from the same conversation are serialized by the session's own mutex
// (§5).
type Dispatcher struct {
	sessions *session.Store
	analyzer *analyzer.Analyzer
	agents   *agentapi.Registry
	executor *executor.Executor
	metrics  *metrics.Registry
	tracer   *telemetry.Tracer

	turnTimeout time.Duration
}

// New wires a Dispatcher over its collaborators. tracer may be nil; ProcessTurn
// treats a nil tracer the same as a disabled one.
func New(sessions *session.Store, an *analyzer.Analyzer, agents *agentapi.Registry, ex *executor.Executor, met *metrics.Registry, tracer *telemetry.Tracer, turnTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		sessions:    sessions,
		analyzer:    an,
		agents:      agents,
		executor:    ex,
		metrics:     met,
		tracer:      tracer,
		turnTimeout: turnTimeout,
	}
}

// ProcessTurn drives one turn end-to-end (§4.1). It never returns a
// non-nil error for a turn-level failure — only for a genuine precondition
// violation (an invalid message) — so callers can treat a nil error as
// "always produced some AgentResponse".
func (d *Dispatcher) ProcessTurn(ctx context.Context, userID string, msg message.Message) (resp message.AgentResponse, err error) {
	if !msg.Valid() {
		return message.AgentResponse{}, fmt.Errorf("dispatcher: invalid message: conversation_id and content are required")
	}

	ctx, cancel := context.WithTimeout(ctx, d.turnTimeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, telemetry.SpanTurn,
		attribute.String(telemetry.AttrUserID, userID),
		attribute.String(telemetry.AttrConversationID, msg.ConversationID),
	)

	sess := d.sessions.GetOrCreate(userID, msg.ConversationID)
	sess.Lock()
	defer sess.Unlock()

	sess.Touch()
	sess.AppendUserTurn(msg.Content)

	start := time.Now()
	response, results, turnErr := d.runTurn(ctx, msg, sess)
	if turnErr != nil {
		logger.GetLogger().Error("turn failed, falling back to reception agent",
			"user_id", userID, "conversation_id", msg.ConversationID, "error", turnErr)
		response = d.fallbackTurn(ctx, msg)
		results = nil
	}
	duration := time.Since(start)

	d.updateSessionState(sess, response, turnErr == nil)
	d.recordMetrics(response, results, duration, turnErr == nil)

	span.SetAttributes(
		attribute.String(telemetry.AttrPrimaryAgent, response.AgentID),
		attribute.Bool(telemetry.AttrSuccess, turnErr == nil),
	)
	telemetry.End(span, turnErr)

	level := "INFO"
	if turnErr != nil {
		level = "ERROR"
	}
	logger.GetLogger().Info("turn processed",
		"level", level, "user_id", userID, "conversation_id", msg.ConversationID,
		"duration_ms", duration.Milliseconds(), "next_action", response.NextAction)

	return response, nil
}

// runTurn executes §4.1 steps 2-7 and recovers from any panic raised by a
// collaborator, converting it into an error so ProcessTurn can fall back.
// The returned []executor.Result lets recordMetrics attribute per-agent
// performance to every agent the turn actually invoked, not just the fused
// primary.
func (d *Dispatcher) runTurn(ctx context.Context, msg message.Message, sess *session.Session) (resp message.AgentResponse, results []executor.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewDispatchError("dispatcher", "run_turn", "recovered panic", fmt.Errorf("%v", r))
		}
	}()

	an, err := analyzer.AnalyzeAndOverride(ctx, d.analyzer, msg, sess)
	if err != nil {
		return message.AgentResponse{}, nil, NewDispatchError("dispatcher", "analyze", "collaboration analysis failed", err)
	}

	taskID := session.NewTurnID()
	outcome := d.executor.RunTask(ctx, taskID, msg, an, sess.SnapshotContext())
	if outcome == nil || len(outcome.Results) == 0 {
		return message.AgentResponse{}, nil, NewDispatchError("dispatcher", "execute", "no primary result produced", nil)
	}

	if ctx.Err() != nil {
		return message.AgentResponse{}, nil, NewDispatchError("dispatcher", "execute", "turn context ended", ctx.Err())
	}

	sess.MergeContext(outcome.FinalContext)
	return fuser.Fuse(outcome, sess), outcome.Results, nil
}

// fallbackTurn invokes the reception agent directly with the original
// message (§4.1's "fallback turn"). If that also fails, it returns the
// hardcoded last-resort response (§7 kind 3).
func (d *Dispatcher) fallbackTurn(ctx context.Context, msg message.Message) message.AgentResponse {
	reception, err := d.agents.MustGet("reception_agent")
	if err == nil {
		invokeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if reply, handleErr := reception.Handle(invokeCtx, msg, nil); handleErr == nil {
			return reply
		}
	}

	return message.AgentResponse{
		AgentID:       "system",
		Content:       "抱歉，系统暂时无法处理您的请求，请稍后再试或联系人工客服。",
		Confidence:    0.1,
		NextAction:    message.ActionHumanHandoff,
		RequiresHuman: true,
		Metadata:      map[string]any{"error": true},
	}
}

// updateSessionState applies §4.6's update(): append the agent TurnRecord,
// refresh current_agents from the response's collaboration metadata, and
// bump the per-session performance counters.
func (d *Dispatcher) updateSessionState(sess *session.Session, response message.AgentResponse, success bool) {
	var collabInfo map[string]any
	if info, ok := response.Metadata["collaboration_info"].(map[string]any); ok {
		collabInfo = info
		if agents, ok := info["participating_agents"].([]string); ok {
			sess.SetCurrentAgents(agents)
		}
	} else {
		sess.SetCurrentAgents([]string{response.AgentID})
	}
	sess.AppendAgentTurn(response.AgentID, response.Content, collabInfo)
	sess.RecordPerf(success)
}

// recordMetrics updates the global/per-agent counters (§4.7). Per-agent
// performance is updated once per invocation: every entry in results (the
// turn's primary and support agents alike), each keyed by its own
// success/error status, not just the fused response's primary agent.
func (d *Dispatcher) recordMetrics(response message.AgentResponse, results []executor.Result, duration time.Duration, success bool) {
	workflowType := "single"
	var participating []string
	if info, ok := response.Metadata["collaboration_info"].(map[string]any); ok {
		if wt, ok := info["workflow_type"].(analyzer.Mode); ok {
			workflowType = string(wt)
		}
		if agents, ok := info["participating_agents"].([]string); ok {
			participating = agents
		}
	}
	if len(participating) == 0 {
		participating = []string{response.AgentID}
	}

	d.metrics.RecordTurn(success, workflowType, duration, participating)

	if len(results) == 0 {
		d.metrics.RecordAgentInvocation(response.AgentID, duration, success)
		return
	}
	for _, r := range results {
		d.metrics.RecordAgentInvocation(r.AgentID, duration, r.Error == "")
	}
}
