package store

import (
	"time"
)

// RunStatus is the lifecycle state of an agent run.
type RunStatus string

const (
	RunPending         RunStatus = "pending"
	RunRunning         RunStatus = "running"
	RunWaitingApproval RunStatus = "waiting_approval"
	RunCompleted       RunStatus = "completed"
	RunFailed          RunStatus = "failed"
	RunCancelled       RunStatus = "cancelled"
)

// ToolCallStatus is the lifecycle state of one proposed tool call.
type ToolCallStatus string

const (
	CallPending          ToolCallStatus = "pending"
	CallRequiresApproval ToolCallStatus = "requires_approval"
	CallApproved         ToolCallStatus = "approved"
	CallRejected         ToolCallStatus = "rejected"
	CallExecuting        ToolCallStatus = "executing"
	CallCompleted        ToolCallStatus = "completed"
	CallFailed           ToolCallStatus = "failed"
)

// ApprovalStatus is the state of one approval request. All non-pending
// states are terminal; a decided or expired request is never reopened.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalExpired  ApprovalStatus = "expired"
)

// AgentRun is one episode of agent activity owning an ordered sequence of
// tool calls.
type AgentRun struct {
	ID             string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	ThreadID       string    `gorm:"type:varchar(64);index" json:"thread_id"`
	OperatorID     string    `gorm:"type:varchar(64);index;not null" json:"operator_id"`
	DealID         string    `gorm:"type:varchar(64);index" json:"deal_id,omitempty"`
	Status         RunStatus `gorm:"type:varchar(32);index" json:"status"`
	IdempotencyKey string    `gorm:"type:varchar(128);index" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToolCall is a proposed tool invocation. Created when the agent proposes
// it, mutated only by the gateway, never deleted: rows are retained for
// audit.
type ToolCall struct {
	ID               string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	RunID            string         `gorm:"type:varchar(64);index;not null" json:"run_id"`
	ToolName         string         `gorm:"type:varchar(128);index;not null" json:"tool_name"`
	ArgsJSON         string         `gorm:"type:text" json:"args_json"`
	Status           ToolCallStatus `gorm:"type:varchar(32);index" json:"status"`
	RiskLevel        string         `gorm:"type:varchar(16)" json:"risk_level"`
	RequiresApproval bool           `json:"requires_approval"`
	ApprovedBy       string         `gorm:"type:varchar(64)" json:"approved_by,omitempty"`
	RejectedBy       string         `gorm:"type:varchar(64)" json:"rejected_by,omitempty"`
	DecidedAt        *time.Time     `json:"decided_at,omitempty"`
	ResultJSON       string         `gorm:"type:text" json:"result_json,omitempty"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ApprovalRequest is a durable record of one pending human decision over a
// proposed tool call. Exactly one exists per approval-requiring call.
// OperatorID is denormalized from the owning run so the pending queue can
// be listed per operator without a join.
type ApprovalRequest struct {
	ID              string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	RunID           string         `gorm:"type:varchar(64);index;not null" json:"run_id"`
	ToolCallID      string         `gorm:"type:varchar(64);index;not null" json:"tool_call_id"`
	OperatorID      string         `gorm:"type:varchar(64);index" json:"operator_id"`
	ToolName        string         `gorm:"type:varchar(128)" json:"tool_name"`
	ArgsJSON        string         `gorm:"type:text" json:"args_json"`
	RiskLevel       string         `gorm:"type:varchar(16)" json:"risk_level"`
	Preview         string         `gorm:"type:text" json:"preview"`
	EvidenceJSON    string         `gorm:"type:text" json:"evidence_json,omitempty"`
	Status          ApprovalStatus `gorm:"type:varchar(16);index" json:"status"`
	DecidedBy       string         `gorm:"type:varchar(64)" json:"decided_by,omitempty"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ExpiresAt       time.Time      `gorm:"index" json:"expires_at"`
}

// Thread is the durable conversation context a run belongs to.
type Thread struct {
	ID         string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	OperatorID string    `gorm:"type:varchar(64);index;not null" json:"operator_id"`
	DealID     string    `gorm:"type:varchar(64);index" json:"deal_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExecutionLog is one audit trail entry for a terminal execution outcome.
// Mode records how the call was authorized: "auto" or "approved".
type ExecutionLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID        string    `gorm:"type:varchar(64);index" json:"run_id"`
	ToolCallID   string    `gorm:"type:varchar(64);index" json:"tool_call_id"`
	ToolName     string    `gorm:"type:varchar(128);index" json:"tool_name"`
	Mode         string    `gorm:"type:varchar(16)" json:"mode"`
	ActorID      string    `gorm:"type:varchar(64)" json:"actor_id,omitempty"`
	InputJSON    string    `gorm:"type:text" json:"input_json"`
	OutputJSON   string    `gorm:"type:text" json:"output_json,omitempty"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `gorm:"index" json:"success"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event is a persisted lifecycle notification.
type Event struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Type         string    `gorm:"type:varchar(64);index;not null" json:"type"`
	RunID        string    `gorm:"type:varchar(64);index" json:"run_id,omitempty"`
	ThreadID     string    `gorm:"type:varchar(64);index" json:"thread_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	PayloadJSON  string    `gorm:"type:text" json:"payload_json"`
	MetadataJSON string    `gorm:"type:text" json:"metadata_json,omitempty"`
}
