package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator for the gateway. All operations are
// single-entity; the gateway issues no bulk queries. Locking and transaction
// discipline are the implementation's responsibility.
type Store interface {
	// Approval operations
	CreateApproval(ctx context.Context, approval *ApprovalRequest) error
	FindApproval(ctx context.Context, id string) (*ApprovalRequest, error)
	UpdateApproval(ctx context.Context, approval *ApprovalRequest) error
	// UpdateApprovalIf applies the update only while the stored status still
	// equals from, and reports whether the transition happened. This is the
	// conditional write that keeps two racing decisions from both landing.
	UpdateApprovalIf(ctx context.Context, id string, from ApprovalStatus, approval *ApprovalRequest) (bool, error)
	PendingApprovalsByOperator(ctx context.Context, operatorID string) ([]ApprovalRequest, error)
	StaleApprovals(ctx context.Context, now time.Time) ([]ApprovalRequest, error)

	// Tool call operations
	CreateToolCall(ctx context.Context, call *ToolCall) error
	FindToolCall(ctx context.Context, id string) (*ToolCall, error)
	UpdateToolCall(ctx context.Context, call *ToolCall) error
	CountToolCallsByRun(ctx context.Context, runID string) (int64, error)

	// Run operations
	CreateRun(ctx context.Context, run *AgentRun) error
	FindRun(ctx context.Context, id string) (*AgentRun, error)
	UpdateRun(ctx context.Context, run *AgentRun) error
	CountRecentRunsByOperator(ctx context.Context, operatorID string, since time.Time) (int64, error)

	// Thread operations
	CreateThread(ctx context.Context, thread *Thread) error
	FindThread(ctx context.Context, id string) (*Thread, error)

	// Audit trail
	CreateExecutionLog(ctx context.Context, entry *ExecutionLog) error
	CreateEvent(ctx context.Context, event *Event) error

	// Lifecycle
	Close() error
}
