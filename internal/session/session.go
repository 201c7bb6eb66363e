// Package session implements the in-memory SmartSession store keyed by
// (user_id, conversation_id) — spec §4.6, adapted from the teacher's
// pkg/session.Service (per-entry locking, map-level mutex) merged with
// team.SharedState's history-capping discipline.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status mirrors the session lifecycle enum (§3), canonicalized to English
// per the resolved Open Question on mixed Chinese/English vocabulary.
type Status string

const (
	StatusActive        Status = "active"
	StatusCollaborating Status = "collaborating"
	StatusWaiting       Status = "waiting"
	StatusCompleted     Status = "completed"
	StatusError         Status = "error"
)

// Direction distinguishes the two TurnRecord sides of one turn.
type Direction string

const (
	DirectionUser  Direction = "user"
	DirectionAgent Direction = "agent"
)

// TurnRecord is one appended entry in a session's transcript.
type TurnRecord struct {
	Timestamp         time.Time
	Direction         Direction
	Content           string
	AgentID           string
	CollaborationInfo map[string]any
}

// PerfStats is the per-session performance counter block (§3).
type PerfStats struct {
	TotalInteractions        int
	SuccessfulCollaborations int
	AgentSwitches            int
}

// transcriptCapRecords is 20 TurnRecords = 10 user-turns (§4.6).
const transcriptCapRecords = 20

// Session is the SmartSession entity. Every mutating method assumes the
// caller already holds the session's lock (acquired via Lock/Unlock) for
// the duration of the turn — this is what serializes turns against the
// same conversation while leaving unrelated conversations free to run
// concurrently (§5).
type Session struct {
	mu sync.Mutex

	UserID         string
	ConversationID string
	CurrentAgents  []string
	Context        map[string]any
	Transcript     []TurnRecord
	StartTime      time.Time
	LastActive     time.Time
	Status         Status
	Perf           PerfStats
}

func newSession(userID, conversationID string) *Session {
	now := time.Now()
	return &Session{
		UserID:         userID,
		ConversationID: conversationID,
		CurrentAgents:  nil,
		Context:        map[string]any{},
		Transcript:     nil,
		StartTime:      now,
		LastActive:     now,
		Status:         StatusActive,
	}
}

// Lock must be held for the full duration of one turn.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-turn lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch sets LastActive to now. Called at turn start (§4.1 step 1).
func (s *Session) Touch() { s.LastActive = time.Now() }

// SnapshotContext returns a shallow copy of Context safe to pass to the
// Analyzer without risking a concurrent mutation (§5's "snapshot under
// lock, release, then invoke" guidance — here the lock is already held for
// the turn, so this is simply a defensive copy).
func (s *Session) SnapshotContext() map[string]any {
	out := make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		out[k] = v
	}
	return out
}

// HandoffPending reports the pending-handoff flag from Context.
func (s *Session) HandoffPending() bool {
	v, _ := s.Context["handoff_pending"].(bool)
	return v
}

// HandoffTarget reports the pending handoff's target agent id.
func (s *Session) HandoffTarget() string {
	v, _ := s.Context["handoff_target"].(string)
	return v
}

// SetHandoff records a pending handoff.
func (s *Session) SetHandoff(target string) {
	s.Context["handoff_pending"] = true
	s.Context["handoff_target"] = target
}

// ClearHandoff clears a pending handoff (e.g. once rule 1 consumes it).
func (s *Session) ClearHandoff() {
	s.Context["handoff_pending"] = false
}

// AppendUserTurn appends the user-side TurnRecord for this turn.
func (s *Session) AppendUserTurn(content string) {
	s.Transcript = append(s.Transcript, TurnRecord{
		Timestamp: time.Now(),
		Direction: DirectionUser,
		Content:   content,
	})
	s.capTranscript()
}

// AppendAgentTurn appends the agent-side TurnRecord for this turn.
func (s *Session) AppendAgentTurn(agentID, content string, collaborationInfo map[string]any) {
	s.Transcript = append(s.Transcript, TurnRecord{
		Timestamp:         time.Now(),
		Direction:         DirectionAgent,
		Content:           content,
		AgentID:           agentID,
		CollaborationInfo: collaborationInfo,
	})
	s.capTranscript()
}

// capTranscript truncates the transcript to the last transcriptCapRecords
// entries (10 user-turns, §4.6).
func (s *Session) capTranscript() {
	if len(s.Transcript) > transcriptCapRecords {
		s.Transcript = s.Transcript[len(s.Transcript)-transcriptCapRecords:]
	}
}

// SetCurrentAgents replaces CurrentAgents with the ordered agent ids that
// appeared in the latest turn's results (§3 invariant).
func (s *Session) SetCurrentAgents(ids []string) {
	if !equalStringSlices(s.CurrentAgents, ids) {
		s.Perf.AgentSwitches++
	}
	s.CurrentAgents = append([]string(nil), ids...)
}

// MergeContext unions extra into Context, extra taking precedence.
func (s *Session) MergeContext(extra map[string]any) {
	for k, v := range extra {
		s.Context[k] = v
	}
}

// RecordPerf updates the per-session performance counters for one turn.
func (s *Session) RecordPerf(success bool) {
	s.Perf.TotalInteractions++
	if success {
		s.Perf.SuccessfulCollaborations++
	}
}

// Store is the process-wide map of sessions keyed by (user_id,
// conversation_id), guarded by its own mutex separate from each Session's
// per-turn lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func sessionKey(userID, conversationID string) string {
	return userID + "\x00" + conversationID
}

// GetOrCreate returns the session for (userID, conversationID), creating
// it atomically if it does not yet exist.
func (st *Store) GetOrCreate(userID, conversationID string) *Session {
	key := sessionKey(userID, conversationID)

	st.mu.RLock()
	sess, ok := st.sessions[key]
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[key]; ok {
		return sess
	}
	sess = newSession(userID, conversationID)
	st.sessions[key] = sess
	return sess
}

// Sweep removes sessions whose LastActive is older than idleCutoff
// relative to now. Returns the count removed (§4.6).
func (st *Store) Sweep(now time.Time, idleCutoff time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for key, sess := range st.sessions {
		sess.mu.Lock()
		stale := now.Sub(sess.LastActive) > idleCutoff
		sess.mu.Unlock()
		if stale {
			delete(st.sessions, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// NewTurnID generates an id suitable for a CollaborationTask.task_id.
func NewTurnID() string {
	return uuid.NewString()
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
