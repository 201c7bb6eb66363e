// Package agentapi defines the uniform capability interface the dispatcher
// uses to treat all five specialist agents as interchangeable black boxes
// (spec §4.5), plus a small name-keyed registry built on registry.BaseRegistry.
package agentapi

import (
	"context"
	"fmt"

	"github.com/clothline/dispatch/internal/message"
	"github.com/clothline/dispatch/registry"
)

// Agent is the uniform interface every specialist agent implements. Handle
// must be safe to invoke concurrently for distinct conversations; the
// dispatcher guarantees serialized invocation per conversation via the
// session mutex, not via this interface.
type Agent interface {
	ID() string
	Capabilities() []string
	Handle(ctx context.Context, msg message.Message, sessionContext map[string]any) (message.AgentResponse, error)
}

// RegistryError carries the component context for a registry failure,
// mirroring the team/agent packages' typed-error style.
type RegistryError struct {
	Operation string
	AgentID   string
	Err       error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("agentapi registry: %s %q: %v", e.Operation, e.AgentID, e.Err)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Registry is a name-keyed store of Agent implementations, one per
// specialist (reception_agent, sales_agent, order_agent, knowledge_agent,
// styling_agent).
type Registry struct {
	base *registry.BaseRegistry[Agent]
}

// NewRegistry returns an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[Agent]()}
}

// Register adds an agent under its own ID.
func (r *Registry) Register(a Agent) error {
	if err := r.base.Register(a.ID(), a); err != nil {
		return &RegistryError{Operation: "register", AgentID: a.ID(), Err: err}
	}
	return nil
}

// Get looks up an agent by ID.
func (r *Registry) Get(id string) (Agent, bool) {
	return r.base.Get(id)
}

// MustGet looks up an agent by ID, returning a RegistryError if absent.
func (r *Registry) MustGet(id string) (Agent, error) {
	a, ok := r.base.Get(id)
	if !ok {
		return nil, &RegistryError{Operation: "get", AgentID: id, Err: fmt.Errorf("not registered")}
	}
	return a, nil
}

// IDs returns the registered agent IDs.
func (r *Registry) IDs() []string {
	return r.base.Names()
}

// Known reports whether id names a registered agent.
func (r *Registry) Known(id string) bool {
	_, ok := r.base.Get(id)
	return ok
}
