// Package message defines the wire-independent data model shared across the
// dispatcher: the inbound Message and the outbound AgentResponse, plus the
// small enums that constrain their fields.
package message

import "time"

// Type classifies a Message's payload.
type Type string

const (
	TypeText          Type = "text"
	TypeImage         Type = "image"
	TypeSystem        Type = "system"
	TypeAgentResponse Type = "agent_response"
)

// Priority orders a Message relative to others in the same conversation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NextAction tells the caller what should happen after an AgentResponse.
type NextAction string

const (
	ActionContinue     NextAction = "continue"
	ActionTransfer     NextAction = "transfer"
	ActionClarify      NextAction = "clarify"
	ActionRetry        NextAction = "retry"
	ActionComplete     NextAction = "complete"
	ActionHumanHandoff NextAction = "human_handoff"
)

// IntentType loosely classifies the user's intent as surfaced by a
// specialist agent. It is opaque to the core; agents set it, the fuser and
// metrics layer merely carry it through.
type IntentType string

// Message is the unit of work the dispatcher processes. Immutable once
// built; owned by the turn that processes it.
type Message struct {
	Content        string
	SenderID       string
	ConversationID string
	Type           Type
	Priority       Priority
	Metadata       map[string]any
	Timestamp      time.Time
}

// New builds a Message with sensible defaults (Type=text, Priority=normal,
// Timestamp=now) for the fields the caller does not set explicitly.
func New(senderID, conversationID, content string) Message {
	return Message{
		Content:        content,
		SenderID:       senderID,
		ConversationID: conversationID,
		Type:           TypeText,
		Priority:       PriorityNormal,
		Metadata:       map[string]any{},
		Timestamp:      time.Now(),
	}
}

// Valid reports whether the preconditions of §4.1 hold: a non-empty
// conversation id and non-empty content.
func (m Message) Valid() bool {
	return m.ConversationID != "" && m.Content != ""
}

// AgentResponse is produced per agent invocation. Fused copies of it are
// what the dispatcher ultimately returns to its caller.
type AgentResponse struct {
	Content          string
	AgentID          string
	Confidence       float64
	NextAction       NextAction
	SuggestedAgents  []string
	RequiresHuman    bool
	IntentType       IntentType
	EscalationReason string
	Metadata         map[string]any
}

// Clone returns a deep-enough copy safe to mutate without affecting the
// original (Metadata and SuggestedAgents are copied).
func (r AgentResponse) Clone() AgentResponse {
	out := r
	if r.SuggestedAgents != nil {
		out.SuggestedAgents = append([]string(nil), r.SuggestedAgents...)
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
