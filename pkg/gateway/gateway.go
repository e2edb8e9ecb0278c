package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/dealgrid/agentgate/pkg/events"
	"github.com/dealgrid/agentgate/pkg/policy"
	"github.com/dealgrid/agentgate/pkg/registry"
	"github.com/dealgrid/agentgate/pkg/store"
)

// runWindow is the trailing window for the per-operator run rate limit.
const runWindow = 60 * time.Second

// Execution modes recorded in the audit trail.
const (
	ModeAuto     = "auto"
	ModeApproved = "approved"
)

// Handler is the uniform call contract for injected tool implementations.
type Handler func(ctx context.Context, args map[string]interface{}, tctx ThreadContext) (interface{}, error)

// ThreadContext is the ephemeral per-call context derived from the owning
// run; it is never persisted independently.
type ThreadContext struct {
	OperatorID string
	DealID     string
}

// Disposition is the terminal outcome of a gateway operation.
type Disposition string

const (
	DispositionExecuted        Disposition = "executed"
	DispositionWaitingApproval Disposition = "waiting_approval"
	DispositionRejected        Disposition = "rejected"
)

// Result describes what the gateway did with a proposed call or decision.
type Result struct {
	Disposition Disposition
	ApprovalID  string
	Output      interface{}
}

// Gateway is the single authorization and execution-control point. Every
// action the agent proposes passes through it; tool code runs only through
// its dispatch path, either during auto-execute or after approval.
//
// The gateway holds no mutable state beyond the handler map, which is
// populated during startup and read-only afterward. All durable state lives
// behind the injected Store.
type Gateway struct {
	registry *registry.Registry
	policy   policy.SafetyPolicy
	store    store.Store
	emitter  events.Emitter
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler
}

// Config assembles a Gateway.
type Config struct {
	Registry *registry.Registry
	Policy   policy.SafetyPolicy
	Store    store.Store
	Emitter  events.Emitter
	Logger   zerolog.Logger
}

// New creates a Gateway. Registry and Store are required; a nil Emitter
// falls back to a no-op sink.
func New(cfg Config) (*Gateway, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid safety policy: %w", err)
	}

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = events.NopEmitter{}
	}

	g := &Gateway{
		registry: cfg.Registry,
		policy:   cfg.Policy,
		store:    cfg.Store,
		emitter:  emitter,
		logger:   cfg.Logger,
		now:      time.Now,
		handlers: make(map[string]Handler),
	}

	g.logger.Info().Int("tools", cfg.Registry.Count()).Msg("Tool gateway initialized")

	return g, nil
}

// RegisterHandler binds an implementation to a cataloged tool name.
// Registering a name absent from the registry is a hard startup error.
func (g *Gateway) RegisterHandler(name string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler for %q cannot be nil", name)
	}
	if _, ok := g.registry.Lookup(name); !ok {
		return fmt.Errorf("cannot register implementation for tool %q: %w", name, ErrUnknownTool)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.handlers[name]; exists {
		return fmt.Errorf("implementation for %q already registered", name)
	}
	g.handlers[name] = handler

	g.logger.Debug().Str("tool", name).Msg("Tool implementation registered")

	return nil
}

func (g *Gateway) handlerFor(name string) (Handler, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	handler, ok := g.handlers[name]
	return handler, ok
}

// ExecuteToolCall runs a proposed call through the ordered hard gates:
// unknown tool, disabled tool, parameter validation, rate limits, policy.
// Each gate fails fast with no partial side effects from a later step. The
// outcome is either immediate execution or a persisted approval request
// that pauses the run.
func (g *Gateway) ExecuteToolCall(ctx context.Context, call *store.ToolCall, run *store.AgentRun, tctx ThreadContext) (Result, error) {
	def, ok := g.registry.Lookup(call.ToolName)
	if !ok {
		return Result{}, fmt.Errorf("tool %q: %w", call.ToolName, ErrUnknownTool)
	}

	if g.policy.IsToolDisabled(call.ToolName) {
		return Result{}, fmt.Errorf("tool %q is disabled by safety policy: %w", call.ToolName, ErrToolDisabled)
	}

	args, err := decodeArgs(call.ArgsJSON)
	if err != nil {
		return Result{}, fmt.Errorf("tool %q: malformed arguments: %w", call.ToolName, err)
	}
	if err := validateArgs(def, args); err != nil {
		return Result{}, err
	}

	callCount, err := g.store.CountToolCallsByRun(ctx, run.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count tool calls for run %s: %w", run.ID, err)
	}
	if callCount >= int64(g.policy.MaxToolCallsPerRun) {
		return Result{}, fmt.Errorf("Rate limit exceeded: run %s already has %d tool calls: %w", run.ID, callCount, ErrRateLimited)
	}

	runCount, err := g.store.CountRecentRunsByOperator(ctx, tctx.OperatorID, g.now().Add(-runWindow))
	if err != nil {
		return Result{}, fmt.Errorf("failed to count recent runs for operator %s: %w", tctx.OperatorID, err)
	}
	if runCount >= int64(g.policy.MaxRunsPerMinute) {
		return Result{}, fmt.Errorf("Rate limit exceeded: operator %s started %d runs in the last minute: %w", tctx.OperatorID, runCount, ErrRateLimited)
	}

	now := g.now()
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	call.RunID = run.ID
	call.RiskLevel = string(def.Risk)
	call.RequiresApproval = def.RequiresApproval
	call.Status = store.CallPending
	call.CreatedAt = now
	call.UpdatedAt = now
	if err := g.store.CreateToolCall(ctx, call); err != nil {
		return Result{}, fmt.Errorf("failed to persist tool call: %w", err)
	}

	if g.policy.ShouldAutoExecute(def.Name, def.Risk, def.RequiresApproval, def.ExternalImpact) {
		output, err := g.dispatch(ctx, def, call, run, tctx, args, ModeAuto, tctx.OperatorID)
		if err != nil {
			return Result{}, err
		}
		return Result{Disposition: DispositionExecuted, Output: output}, nil
	}

	return g.requestApproval(ctx, def, call, run, tctx, args)
}

// requestApproval persists a pending ApprovalRequest, pauses the run, and
// notifies observers. No tool code runs on this path.
func (g *Gateway) requestApproval(ctx context.Context, def *registry.Definition, call *store.ToolCall, run *store.AgentRun, tctx ThreadContext, args map[string]interface{}) (Result, error) {
	now := g.now()

	approval := &store.ApprovalRequest{
		ID:         gonanoid.Must(),
		RunID:      run.ID,
		ToolCallID: call.ID,
		OperatorID: tctx.OperatorID,
		ToolName:   def.Name,
		ArgsJSON:   call.ArgsJSON,
		RiskLevel:  string(def.Risk),
		Preview:    buildPreview(def, args),
		Status:     store.ApprovalPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(g.policy.ApprovalExpiration),
	}
	if err := g.store.CreateApproval(ctx, approval); err != nil {
		return Result{}, fmt.Errorf("failed to persist approval request: %w", err)
	}

	call.Status = store.CallRequiresApproval
	call.RequiresApproval = true
	call.UpdatedAt = now
	if err := g.store.UpdateToolCall(ctx, call); err != nil {
		return Result{}, fmt.Errorf("failed to update tool call: %w", err)
	}

	run.Status = store.RunWaitingApproval
	run.UpdatedAt = now
	if err := g.store.UpdateRun(ctx, run); err != nil {
		return Result{}, fmt.Errorf("failed to update run: %w", err)
	}

	g.logger.Info().
		Str("tool", def.Name).
		Str("approval_id", approval.ID).
		Str("run_id", run.ID).
		Str("risk_level", string(def.Risk)).
		Msg("Approval requested")

	g.emitter.Emit(events.TypeApprovalRequested, events.Event{
		Type:      events.TypeApprovalRequested,
		RunID:     run.ID,
		ThreadID:  run.ThreadID,
		Timestamp: now,
		Payload: map[string]interface{}{
			"approval_id":  approval.ID,
			"tool_call_id": call.ID,
			"tool":         def.Name,
			"risk_level":   string(def.Risk),
			"preview":      approval.Preview,
			"expires_at":   approval.ExpiresAt,
		},
	})

	return Result{Disposition: DispositionWaitingApproval, ApprovalID: approval.ID}, nil
}

// dispatch is the only path through which tool code runs, for both the
// auto-execute and post-approval flows. Implementation errors and panics
// are caught, audited, and surfaced as error results; they never propagate
// past the gateway.
func (g *Gateway) dispatch(ctx context.Context, def *registry.Definition, call *store.ToolCall, run *store.AgentRun, tctx ThreadContext, args map[string]interface{}, mode, actorID string) (interface{}, error) {
	handler, ok := g.handlerFor(def.Name)
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", def.Name, ErrHandlerNotRegistered)
	}

	call.Status = store.CallExecuting
	call.UpdatedAt = g.now()
	if err := g.store.UpdateToolCall(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to update tool call: %w", err)
	}

	start := g.now()
	output, execErr := g.invoke(ctx, handler, args, tctx)
	durationMs := time.Since(start).Milliseconds()

	entry := &store.ExecutionLog{
		RunID:      run.ID,
		ToolCallID: call.ID,
		ToolName:   def.Name,
		Mode:       mode,
		ActorID:    actorID,
		InputJSON:  call.ArgsJSON,
		DurationMs: durationMs,
		Success:    execErr == nil,
		CreatedAt:  g.now(),
	}

	if execErr != nil {
		entry.ErrorMessage = execErr.Error()
		call.Status = store.CallFailed
		call.ErrorMessage = execErr.Error()
	} else {
		encoded, err := json.Marshal(output)
		if err != nil {
			encoded = []byte("null")
		}
		entry.OutputJSON = string(encoded)
		call.Status = store.CallCompleted
		call.ResultJSON = string(encoded)
	}

	if err := g.store.CreateExecutionLog(ctx, entry); err != nil {
		g.logger.Warn().Err(err).Str("tool", def.Name).Msg("Failed to write audit entry")
	}
	call.UpdatedAt = g.now()
	if err := g.store.UpdateToolCall(ctx, call); err != nil {
		g.logger.Warn().Err(err).Str("tool", def.Name).Msg("Failed to update tool call after execution")
	}

	if execErr != nil {
		g.logger.Error().
			Err(execErr).
			Str("tool", def.Name).
			Str("mode", mode).
			Int64("duration_ms", durationMs).
			Msg("Tool execution failed")
		return nil, fmt.Errorf("tool %q execution failed: %w", def.Name, execErr)
	}

	eventType := events.TypeToolCompleted
	if mode == ModeApproved {
		eventType = events.TypeCompleted
	}
	g.emitter.Emit(eventType, events.Event{
		Type:      eventType,
		RunID:     run.ID,
		ThreadID:  run.ThreadID,
		Timestamp: g.now(),
		Payload: map[string]interface{}{
			"tool_call_id": call.ID,
			"tool":         def.Name,
			"mode":         mode,
			"actor_id":     actorID,
			"duration_ms":  durationMs,
		},
	})

	g.logger.Debug().
		Str("tool", def.Name).
		Str("mode", mode).
		Int64("duration_ms", durationMs).
		Msg("Tool execution completed")

	return output, nil
}

// invoke runs the handler, converting panics into errors.
func (g *Gateway) invoke(ctx context.Context, handler Handler, args map[string]interface{}, tctx ThreadContext) (output interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool implementation panicked: %v", r)
		}
	}()
	return handler(ctx, args, tctx)
}

func decodeArgs(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}
