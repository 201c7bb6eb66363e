package session

import (
	"testing"
	"time"
)

func TestStore_GetOrCreate_SameKeyReturnsSameSession(t *testing.T) {
	st := NewStore()
	a := st.GetOrCreate("u1", "c1")
	b := st.GetOrCreate("u1", "c1")
	if a != b {
		t.Error("GetOrCreate should return the same *Session for the same key")
	}
	if st.Count() != 1 {
		t.Errorf("Count() = %d, want 1", st.Count())
	}
}

func TestSession_TranscriptCap(t *testing.T) {
	sess := newSession("u1", "c1")
	for i := 0; i < 15; i++ {
		sess.AppendUserTurn("hi")
		sess.AppendAgentTurn("sales_agent", "hello", nil)
	}
	if len(sess.Transcript) != transcriptCapRecords {
		t.Errorf("len(Transcript) = %d, want %d", len(sess.Transcript), transcriptCapRecords)
	}
}

func TestSession_HandoffLifecycle(t *testing.T) {
	sess := newSession("u1", "c1")
	if sess.HandoffPending() {
		t.Fatal("new session should not have a pending handoff")
	}
	sess.SetHandoff("sales_agent")
	if !sess.HandoffPending() || sess.HandoffTarget() != "sales_agent" {
		t.Errorf("handoff not set correctly: pending=%v target=%v", sess.HandoffPending(), sess.HandoffTarget())
	}
	sess.ClearHandoff()
	if sess.HandoffPending() {
		t.Error("handoff should be cleared")
	}
}

func TestStore_Sweep(t *testing.T) {
	st := NewStore()
	sess := st.GetOrCreate("u1", "c1")
	sess.LastActive = time.Now().Add(-48 * time.Hour)

	removed := st.Sweep(time.Now(), 24*time.Hour)
	if removed != 1 {
		t.Errorf("Sweep() removed = %d, want 1", removed)
	}
	if st.Count() != 0 {
		t.Errorf("Count() after sweep = %d, want 0", st.Count())
	}
}

func TestSession_SetCurrentAgents_CountsSwitches(t *testing.T) {
	sess := newSession("u1", "c1")
	sess.SetCurrentAgents([]string{"sales_agent"})
	sess.SetCurrentAgents([]string{"order_agent"})
	if sess.Perf.AgentSwitches != 2 {
		t.Errorf("AgentSwitches = %d, want 2", sess.Perf.AgentSwitches)
	}
}
