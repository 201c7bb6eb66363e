// Package dispatch implements a multi-agent dispatcher for a clothing
// retailer's conversational customer-service product.
//
// Every inbound message is routed to one or more of five specialist
// agents — reception, sales, order, knowledge, and styling — by a
// collaboration analyzer that combines an LLM-driven recommendation with
// a deterministic override rule pipeline. A workflow executor then runs
// the recommended agents (single, parallel, sequential, or consultation
// mode), and a response fuser reduces their results to the single
// AgentResponse returned to the caller.
//
// # Quick Start
//
// Run the CLI against a YAML config:
//
//	go run ./cmd/dispatcher serve --config dispatcher.yaml
//
// A minimal config needs only an LLM provider:
//
//	llms:
//	  default:
//	    type: anthropic
//	    model: claude-3-5-haiku-20241022
//	    api_key: "${ANTHROPIC_API_KEY}"
//
// # Architecture
//
//	Message -> Analyzer (LLM + override rules) -> Executor -> Fuser -> AgentResponse
//	                                                  |
//	                                            Session Store
//
// See SPEC_FULL.md for the complete component design.
package dispatch
