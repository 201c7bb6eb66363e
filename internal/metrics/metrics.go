// Package metrics implements the global and per-agent performance counters
// of spec §4.7, grounded on the original dispatcher's stats dict
// (total_messages/average_response_time/agent_usage/collaboration_patterns)
// and update_agent_performance, wired through github.com/prometheus/client_golang
// so the counters are scrapeable as well as queryable in-process.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AgentStats is one specialist agent's per-invocation performance record
// (§4.7's "per-agent performance").
type AgentStats struct {
	TotalCalls      int64
	SuccessCalls    int64
	AvgResponseTime time.Duration
	MinResponseTime time.Duration
	MaxResponseTime time.Duration
	LastUpdated     time.Time
}

// Snapshot is a read-only copy of the global counters at one instant,
// suitable for the optional /stats endpoint.
type Snapshot struct {
	TotalMessages            int64
	SuccessfulCollaborations int64
	AverageResponseTime      time.Duration
	AgentUsage               map[string]int64
	CollaborationPatterns    map[string]int64
	AgentStats               map[string]AgentStats
}

// Registry is the process-wide metrics store. One Registry is shared by
// the dispatcher across all turns and conversations; every method is safe
// for concurrent use.
type Registry struct {
	mu sync.Mutex

	totalMessages            int64
	successfulCollaborations int64
	averageResponseTime      time.Duration
	agentUsage               map[string]int64
	collaborationPatterns    map[string]int64
	agentStats               map[string]AgentStats

	promTotalMessages    prometheus.Counter
	promSuccessfulCollab prometheus.Counter
	promResponseTime     prometheus.Histogram
	promAgentUsage       *prometheus.CounterVec
	promAgentCalls       *prometheus.CounterVec
	promAgentFailures    *prometheus.CounterVec
}

// New builds a Registry and registers its collectors with reg (pass
// prometheus.NewRegistry() or prometheus.DefaultRegisterer-wrapped
// registry; nil skips registration entirely, so tests never collide with
// global state).
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		agentUsage:            map[string]int64{},
		collaborationPatterns: map[string]int64{},
		agentStats:            map[string]AgentStats{},

		promTotalMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_turns_total",
			Help: "Total turns processed by the dispatcher.",
		}),
		promSuccessfulCollab: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_successful_collaborations_total",
			Help: "Turns whose collaboration result reported success.",
		}),
		promResponseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_turn_duration_seconds",
			Help:    "Per-turn end-to-end processing time.",
			Buckets: prometheus.DefBuckets,
		}),
		promAgentUsage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_agent_usage_total",
			Help: "Times an agent appeared in a turn's result set.",
		}, []string{"agent_id"}),
		promAgentCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_agent_calls_total",
			Help: "Per-agent invocation count.",
		}, []string{"agent_id"}),
		promAgentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_agent_call_failures_total",
			Help: "Per-agent invocation failure count.",
		}, []string{"agent_id"}),
	}

	if reg != nil {
		reg.MustRegister(r.promTotalMessages, r.promSuccessfulCollab, r.promResponseTime,
			r.promAgentUsage, r.promAgentCalls, r.promAgentFailures)
	}
	return r
}

// RecordTurn updates the global counters for one completed turn, mirroring
// _update_performance_stats: an incremental mean over average_response_time,
// one agent_usage increment per participating agent, and one
// collaboration_patterns increment for the mode used.
func (r *Registry) RecordTurn(success bool, workflowType string, duration time.Duration, participatingAgents []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalMessages++
	if success {
		r.successfulCollaborations++
	}
	r.averageResponseTime += (duration - r.averageResponseTime) / time.Duration(r.totalMessages)
	r.collaborationPatterns[workflowType]++
	for _, id := range participatingAgents {
		r.agentUsage[id]++
		r.promAgentUsage.WithLabelValues(id).Inc()
	}

	r.promTotalMessages.Inc()
	if success {
		r.promSuccessfulCollab.Inc()
	}
	r.promResponseTime.Observe(duration.Seconds())
}

// RecordAgentInvocation updates one agent's per-invocation stats (§4.7's
// "per-agent performance"). success is true iff the invocation's result
// entry lacked an error.
func (r *Registry) RecordAgentInvocation(agentID string, duration time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.agentStats[agentID]
	s.TotalCalls++
	if success {
		s.SuccessCalls++
	}
	s.AvgResponseTime += (duration - s.AvgResponseTime) / time.Duration(s.TotalCalls)
	if s.MinResponseTime == 0 || duration < s.MinResponseTime {
		s.MinResponseTime = duration
	}
	if duration > s.MaxResponseTime {
		s.MaxResponseTime = duration
	}
	s.LastUpdated = time.Now()
	r.agentStats[agentID] = s

	r.promAgentCalls.WithLabelValues(agentID).Inc()
	if !success {
		r.promAgentFailures.WithLabelValues(agentID).Inc()
	}
}

// Snapshot returns a defensive copy of every counter.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	agentUsage := make(map[string]int64, len(r.agentUsage))
	for k, v := range r.agentUsage {
		agentUsage[k] = v
	}
	patterns := make(map[string]int64, len(r.collaborationPatterns))
	for k, v := range r.collaborationPatterns {
		patterns[k] = v
	}
	agentStats := make(map[string]AgentStats, len(r.agentStats))
	for k, v := range r.agentStats {
		agentStats[k] = v
	}

	return Snapshot{
		TotalMessages:            r.totalMessages,
		SuccessfulCollaborations: r.successfulCollaborations,
		AverageResponseTime:      r.averageResponseTime,
		AgentUsage:               agentUsage,
		CollaborationPatterns:    patterns,
		AgentStats:               agentStats,
	}
}

// Reset zeroes every in-process counter, mirroring the original's
// reset_stats. The Prometheus collectors keep their values.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totalMessages = 0
	r.successfulCollaborations = 0
	r.averageResponseTime = 0
	r.agentUsage = map[string]int64{}
	r.collaborationPatterns = map[string]int64{}
	r.agentStats = map[string]AgentStats{}
}
