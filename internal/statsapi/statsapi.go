// Package statsapi exposes internal/metrics.Registry.Snapshot() over a
// read-only GET /stats endpoint (SPEC_FULL §4.7, "ADDED, optional,
// out-of-core"). Nothing in the dispatcher core imports this package; it
// is wired from cmd/dispatcher only when --stats is requested.
package statsapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clothline/dispatch/internal/metrics"
)

// agentStatsView is the JSON-friendly shape of metrics.AgentStats:
// durations render as milliseconds instead of time.Duration's raw int64
// nanoseconds.
type agentStatsView struct {
	TotalCalls    int64     `json:"total_calls"`
	SuccessCalls  int64     `json:"success_calls"`
	AvgResponseMS float64   `json:"avg_response_time_ms"`
	MinResponseMS float64   `json:"min_response_time_ms"`
	MaxResponseMS float64   `json:"max_response_time_ms"`
	LastUpdated   time.Time `json:"last_updated"`
}

type snapshotView struct {
	TotalMessages            int64                     `json:"total_messages"`
	SuccessfulCollaborations int64                     `json:"successful_collaborations"`
	AverageResponseMS        float64                   `json:"average_response_time_ms"`
	AgentUsage               map[string]int64          `json:"agent_usage"`
	CollaborationPatterns    map[string]int64          `json:"collaboration_patterns"`
	AgentStats               map[string]agentStatsView `json:"agent_stats"`
}

func toView(s metrics.Snapshot) snapshotView {
	agents := make(map[string]agentStatsView, len(s.AgentStats))
	for id, st := range s.AgentStats {
		agents[id] = agentStatsView{
			TotalCalls:    st.TotalCalls,
			SuccessCalls:  st.SuccessCalls,
			AvgResponseMS: float64(st.AvgResponseTime.Microseconds()) / 1000,
			MinResponseMS: float64(st.MinResponseTime.Microseconds()) / 1000,
			MaxResponseMS: float64(st.MaxResponseTime.Microseconds()) / 1000,
			LastUpdated:   st.LastUpdated,
		}
	}
	return snapshotView{
		TotalMessages:            s.TotalMessages,
		SuccessfulCollaborations: s.SuccessfulCollaborations,
		AverageResponseMS:        float64(s.AverageResponseTime.Microseconds()) / 1000,
		AgentUsage:               s.AgentUsage,
		CollaborationPatterns:    s.CollaborationPatterns,
		AgentStats:               agents,
	}
}

// NewHandler builds a chi router exposing GET /stats, reading a fresh
// metrics.Registry.Snapshot() on every request.
func NewHandler(reg *metrics.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("content-type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(toView(reg.Snapshot()))
	})

	return r
}
