package metrics

import (
	"testing"
	"time"
)

func TestRecordTurn_AccumulatesIncrementalMean(t *testing.T) {
	r := New(nil)
	r.RecordTurn(true, "single", 100*time.Millisecond, []string{"reception_agent"})
	r.RecordTurn(false, "parallel", 300*time.Millisecond, []string{"sales_agent", "knowledge_agent"})

	snap := r.Snapshot()
	if snap.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d, want 2", snap.TotalMessages)
	}
	if snap.SuccessfulCollaborations != 1 {
		t.Errorf("SuccessfulCollaborations = %d, want 1", snap.SuccessfulCollaborations)
	}
	if want := 200 * time.Millisecond; snap.AverageResponseTime != want {
		t.Errorf("AverageResponseTime = %v, want %v", snap.AverageResponseTime, want)
	}
	if snap.AgentUsage["sales_agent"] != 1 || snap.AgentUsage["reception_agent"] != 1 {
		t.Errorf("AgentUsage = %+v", snap.AgentUsage)
	}
	if snap.CollaborationPatterns["single"] != 1 || snap.CollaborationPatterns["parallel"] != 1 {
		t.Errorf("CollaborationPatterns = %+v", snap.CollaborationPatterns)
	}
}

func TestRecordAgentInvocation_TracksMinMaxAvg(t *testing.T) {
	r := New(nil)
	r.RecordAgentInvocation("sales_agent", 50*time.Millisecond, true)
	r.RecordAgentInvocation("sales_agent", 150*time.Millisecond, false)

	snap := r.Snapshot()
	stats := snap.AgentStats["sales_agent"]
	if stats.TotalCalls != 2 || stats.SuccessCalls != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.MinResponseTime != 50*time.Millisecond || stats.MaxResponseTime != 150*time.Millisecond {
		t.Errorf("min/max = %v/%v", stats.MinResponseTime, stats.MaxResponseTime)
	}
	if stats.AvgResponseTime != 100*time.Millisecond {
		t.Errorf("AvgResponseTime = %v, want 100ms", stats.AvgResponseTime)
	}
}

func TestReset_ZeroesCounters(t *testing.T) {
	r := New(nil)
	r.RecordTurn(true, "single", time.Second, []string{"reception_agent"})
	r.Reset()

	snap := r.Snapshot()
	if snap.TotalMessages != 0 || len(snap.AgentUsage) != 0 {
		t.Errorf("expected zeroed snapshot, got %+v", snap)
	}
}
