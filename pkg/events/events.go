package events

import (
	"time"
)

// Lifecycle event types emitted by the gateway.
const (
	TypeApprovalRequested = "approval_requested"
	TypeToolCompleted     = "tool_completed"
	TypeRejected          = "rejected"
	TypeCompleted         = "completed"
)

// Event is one lifecycle notification. Emission is fire-and-forget: sinks
// never fail the operation that produced the event.
type Event struct {
	Type      string                 `json:"type"`
	RunID     string                 `json:"run_id,omitempty"`
	ThreadID  string                 `json:"thread_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Emitter publishes lifecycle events to observers.
type Emitter interface {
	Emit(name string, event Event)
}

// MultiEmitter fans one event out to several sinks.
type MultiEmitter []Emitter

// Emit implements Emitter.
func (m MultiEmitter) Emit(name string, event Event) {
	for _, emitter := range m {
		emitter.Emit(name, event)
	}
}

// NopEmitter discards every event.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(string, Event) {}
