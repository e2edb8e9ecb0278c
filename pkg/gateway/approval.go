package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dealgrid/agentgate/pkg/events"
	"github.com/dealgrid/agentgate/pkg/store"
)

// Decision is a human operator's verdict on a pending approval.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionRequest carries one approve/reject submission.
type DecisionRequest struct {
	ApprovalID string
	Decision   Decision
	OperatorID string
	// Modifications shallowly override the snapshot arguments on approval;
	// only keys already present in the snapshot are replaced.
	Modifications   map[string]interface{}
	RejectionReason string
}

// ProcessApproval drives the approval state machine:
// pending -> approved | rejected | expired, all terminal. Expiry is checked
// lazily here on access; no background sweeper is required for correctness.
// Approval never re-runs risk policy, parameter validation, or rate limits:
// the human decision is final, only the argument merge and dispatch follow.
func (g *Gateway) ProcessApproval(ctx context.Context, req DecisionRequest) (Result, error) {
	approval, err := g.store.FindApproval(ctx, req.ApprovalID)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("approval %s: %w", req.ApprovalID, ErrApprovalNotFound)
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load approval %s: %w", req.ApprovalID, err)
	}

	if approval.Status != store.ApprovalPending {
		return Result{}, fmt.Errorf("approval %s already %s: %w", approval.ID, approval.Status, ErrApprovalDecided)
	}

	now := g.now()
	if now.After(approval.ExpiresAt) {
		expired := *approval
		expired.Status = store.ApprovalExpired
		if _, uerr := g.store.UpdateApprovalIf(ctx, approval.ID, store.ApprovalPending, &expired); uerr != nil {
			g.logger.Warn().Err(uerr).Str("approval_id", approval.ID).Msg("Failed to mark approval expired")
		}
		return Result{}, fmt.Errorf("approval %s expired at %s: %w",
			approval.ID, approval.ExpiresAt.Format(time.RFC3339), ErrApprovalExpired)
	}

	switch req.Decision {
	case DecisionReject:
		return g.finalizeRejection(ctx, approval, req)
	case DecisionApprove:
		return g.executeApproved(ctx, approval, req)
	default:
		return Result{}, fmt.Errorf("invalid decision %q", req.Decision)
	}
}

// finalizeRejection persists the terminal rejected state. No tool code ever
// runs on this path.
func (g *Gateway) finalizeRejection(ctx context.Context, approval *store.ApprovalRequest, req DecisionRequest) (Result, error) {
	decidedAt := g.now()

	updated := *approval
	updated.Status = store.ApprovalRejected
	updated.DecidedBy = req.OperatorID
	updated.DecidedAt = &decidedAt
	updated.RejectionReason = req.RejectionReason

	applied, err := g.store.UpdateApprovalIf(ctx, approval.ID, store.ApprovalPending, &updated)
	if err != nil {
		return Result{}, fmt.Errorf("failed to persist rejection: %w", err)
	}
	if !applied {
		return Result{}, fmt.Errorf("approval %s already decided concurrently: %w", approval.ID, ErrApprovalDecided)
	}

	call, err := g.store.FindToolCall(ctx, approval.ToolCallID)
	if err != nil {
		g.logger.Warn().Err(err).Str("tool_call_id", approval.ToolCallID).Msg("Rejected approval references missing tool call")
	} else {
		call.Status = store.CallRejected
		call.RejectedBy = req.OperatorID
		call.DecidedAt = &decidedAt
		call.UpdatedAt = decidedAt
		if err := g.store.UpdateToolCall(ctx, call); err != nil {
			g.logger.Warn().Err(err).Str("tool_call_id", call.ID).Msg("Failed to mark tool call rejected")
		}
	}

	run, err := g.store.FindRun(ctx, approval.RunID)
	if err == nil && run.Status == store.RunWaitingApproval {
		run.Status = store.RunRunning
		run.UpdatedAt = decidedAt
		if err := g.store.UpdateRun(ctx, run); err != nil {
			g.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to resume run after rejection")
		}
	}

	g.logger.Info().
		Str("approval_id", approval.ID).
		Str("tool", approval.ToolName).
		Str("decided_by", req.OperatorID).
		Str("reason", req.RejectionReason).
		Msg("Approval rejected")

	threadID := ""
	if run != nil {
		threadID = run.ThreadID
	}
	g.emitter.Emit(events.TypeRejected, events.Event{
		Type:      events.TypeRejected,
		RunID:     approval.RunID,
		ThreadID:  threadID,
		Timestamp: decidedAt,
		Payload: map[string]interface{}{
			"approval_id":  approval.ID,
			"tool_call_id": approval.ToolCallID,
			"tool":         approval.ToolName,
			"decided_by":   req.OperatorID,
			"reason":       req.RejectionReason,
		},
	})

	return Result{Disposition: DispositionRejected, ApprovalID: approval.ID}, nil
}

// executeApproved persists the approved state, merges modifications over
// the snapshot arguments, re-derives the thread context from the owning
// run, and dispatches through the same path auto-execution uses.
func (g *Gateway) executeApproved(ctx context.Context, approval *store.ApprovalRequest, req DecisionRequest) (Result, error) {
	decidedAt := g.now()

	updated := *approval
	updated.Status = store.ApprovalApproved
	updated.DecidedBy = req.OperatorID
	updated.DecidedAt = &decidedAt

	applied, err := g.store.UpdateApprovalIf(ctx, approval.ID, store.ApprovalPending, &updated)
	if err != nil {
		return Result{}, fmt.Errorf("failed to persist approval: %w", err)
	}
	if !applied {
		return Result{}, fmt.Errorf("approval %s already decided concurrently: %w", approval.ID, ErrApprovalDecided)
	}

	args, err := decodeArgs(approval.ArgsJSON)
	if err != nil {
		return Result{}, fmt.Errorf("approval %s: malformed argument snapshot: %w", approval.ID, err)
	}
	for key, value := range req.Modifications {
		if _, exists := args[key]; exists {
			args[key] = value
		}
	}

	run, err := g.store.FindRun(ctx, approval.RunID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load run %s: %w", approval.RunID, err)
	}
	tctx := ThreadContext{OperatorID: run.OperatorID, DealID: run.DealID}

	call, err := g.store.FindToolCall(ctx, approval.ToolCallID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load tool call %s: %w", approval.ToolCallID, err)
	}

	def, ok := g.registry.Lookup(approval.ToolName)
	if !ok {
		return Result{}, fmt.Errorf("tool %q: %w", approval.ToolName, ErrUnknownTool)
	}

	mergedArgs, err := json.Marshal(args)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode merged arguments: %w", err)
	}
	call.ArgsJSON = string(mergedArgs)
	call.Status = store.CallApproved
	call.ApprovedBy = req.OperatorID
	call.DecidedAt = &decidedAt
	call.UpdatedAt = decidedAt
	if err := g.store.UpdateToolCall(ctx, call); err != nil {
		return Result{}, fmt.Errorf("failed to update tool call: %w", err)
	}

	if run.Status == store.RunWaitingApproval {
		run.Status = store.RunRunning
		run.UpdatedAt = decidedAt
		if err := g.store.UpdateRun(ctx, run); err != nil {
			g.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to resume run after approval")
		}
	}

	g.logger.Info().
		Str("approval_id", approval.ID).
		Str("tool", approval.ToolName).
		Str("decided_by", req.OperatorID).
		Msg("Approval granted")

	output, err := g.dispatch(ctx, def, call, run, tctx, args, ModeApproved, req.OperatorID)
	if err != nil {
		return Result{}, err
	}

	return Result{Disposition: DispositionExecuted, ApprovalID: approval.ID, Output: output}, nil
}

// PendingApprovals lists the still-decidable approvals for an operator.
// Requests past their expiry are filtered out without being mutated; the
// sweep or the next decision attempt flips them.
func (g *Gateway) PendingApprovals(ctx context.Context, operatorID string) ([]store.ApprovalRequest, error) {
	pending, err := g.store.PendingApprovalsByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}

	now := g.now()
	decidable := pending[:0]
	for _, approval := range pending {
		if now.After(approval.ExpiresAt) {
			continue
		}
		decidable = append(decidable, approval)
	}
	return decidable, nil
}

// IsApprovalPending reports whether an approval is still awaiting a
// decision and has not passed its expiry.
func (g *Gateway) IsApprovalPending(ctx context.Context, id string) (bool, error) {
	approval, err := g.store.FindApproval(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return approval.Status == store.ApprovalPending && !g.now().After(approval.ExpiresAt), nil
}

// ExpireStaleApprovals flips every pending approval past its expiry to the
// terminal expired state and returns how many were flipped. It is meant to
// be driven by an external periodic job; the gateway never calls it itself,
// since lazy expiry on access already guarantees correctness.
func (g *Gateway) ExpireStaleApprovals(ctx context.Context) (int, error) {
	now := g.now()
	stale, err := g.store.StaleApprovals(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale approvals: %w", err)
	}

	expired := 0
	for i := range stale {
		approval := stale[i]
		approval.Status = store.ApprovalExpired
		applied, err := g.store.UpdateApprovalIf(ctx, approval.ID, store.ApprovalPending, &approval)
		if err != nil {
			g.logger.Warn().Err(err).Str("approval_id", approval.ID).Msg("Failed to expire approval")
			continue
		}
		if applied {
			expired++
		}
	}

	if expired > 0 {
		g.logger.Info().Int("count", expired).Msg("Expired stale approvals")
	}

	return expired, nil
}
