package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for tests and embedded use. It honors
// the same conditional-update contract as the sqlite implementation.
type MemoryStore struct {
	mu        sync.RWMutex
	approvals map[string]ApprovalRequest
	calls     map[string]ToolCall
	runs      map[string]AgentRun
	threads   map[string]Thread
	logs      []ExecutionLog
	events    []Event
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		approvals: make(map[string]ApprovalRequest),
		calls:     make(map[string]ToolCall),
		runs:      make(map[string]AgentRun),
		threads:   make(map[string]Thread),
	}
}

func (s *MemoryStore) CreateApproval(_ context.Context, approval *ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.ID] = *approval
	return nil
}

func (s *MemoryStore) FindApproval(_ context.Context, id string) (*ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	approval, ok := s.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := approval
	return &copied, nil
}

func (s *MemoryStore) UpdateApproval(_ context.Context, approval *ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.approvals[approval.ID]; !ok {
		return ErrNotFound
	}
	s.approvals[approval.ID] = *approval
	return nil
}

func (s *MemoryStore) UpdateApprovalIf(_ context.Context, id string, from ApprovalStatus, approval *ApprovalRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.approvals[id]
	if !ok {
		return false, ErrNotFound
	}
	if current.Status != from {
		return false, nil
	}
	current.Status = approval.Status
	current.DecidedBy = approval.DecidedBy
	current.DecidedAt = approval.DecidedAt
	current.RejectionReason = approval.RejectionReason
	s.approvals[id] = current
	return true, nil
}

func (s *MemoryStore) PendingApprovalsByOperator(_ context.Context, operatorID string) ([]ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := []ApprovalRequest{}
	for _, approval := range s.approvals {
		if approval.OperatorID == operatorID && approval.Status == ApprovalPending {
			pending = append(pending, approval)
		}
	}
	return pending, nil
}

func (s *MemoryStore) StaleApprovals(_ context.Context, now time.Time) ([]ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stale := []ApprovalRequest{}
	for _, approval := range s.approvals {
		if approval.Status == ApprovalPending && approval.ExpiresAt.Before(now) {
			stale = append(stale, approval)
		}
	}
	return stale, nil
}

func (s *MemoryStore) CreateToolCall(_ context.Context, call *ToolCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[call.ID] = *call
	return nil
}

func (s *MemoryStore) FindToolCall(_ context.Context, id string) (*ToolCall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	call, ok := s.calls[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := call
	return &copied, nil
}

func (s *MemoryStore) UpdateToolCall(_ context.Context, call *ToolCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calls[call.ID]; !ok {
		return ErrNotFound
	}
	s.calls[call.ID] = *call
	return nil
}

func (s *MemoryStore) CountToolCallsByRun(_ context.Context, runID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, call := range s.calls {
		if call.RunID == runID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateRun(_ context.Context, run *AgentRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryStore) FindRun(_ context.Context, id string) (*AgentRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := run
	return &copied, nil
}

func (s *MemoryStore) UpdateRun(_ context.Context, run *AgentRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return ErrNotFound
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *MemoryStore) CountRecentRunsByOperator(_ context.Context, operatorID string, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, run := range s.runs {
		if run.OperatorID == operatorID && !run.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateThread(_ context.Context, thread *Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[thread.ID] = *thread
	return nil
}

func (s *MemoryStore) FindThread(_ context.Context, id string) (*Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	thread, ok := s.threads[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := thread
	return &copied, nil
}

func (s *MemoryStore) CreateExecutionLog(_ context.Context, entry *ExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *entry)
	return nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// ExecutionLogs returns a copy of the audit entries recorded so far.
func (s *MemoryStore) ExecutionLogs() []ExecutionLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := make([]ExecutionLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// Events returns a copy of the events recorded so far.
func (s *MemoryStore) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// Approvals returns a copy of every approval row.
func (s *MemoryStore) Approvals() []ApprovalRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	approvals := make([]ApprovalRequest, 0, len(s.approvals))
	for _, approval := range s.approvals {
		approvals = append(approvals, approval)
	}
	return approvals
}
