package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/agentgate/pkg/policy"
	"github.com/dealgrid/agentgate/pkg/registry"
	"github.com/dealgrid/agentgate/pkg/store"
)

// testHarness bundles a gateway over the in-memory store with a counting
// handler bound to every cataloged tool.
type testHarness struct {
	gateway *Gateway
	store   *store.MemoryStore
	clock   time.Time

	invocations map[string]*atomic.Int64
}

func newHarness(t *testing.T, pol policy.SafetyPolicy) *testHarness {
	t.Helper()

	reg, err := registry.New()
	require.NoError(t, err)

	st := store.NewMemoryStore()
	g, err := New(Config{
		Registry: reg,
		Policy:   pol,
		Store:    st,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	h := &testHarness{
		gateway:     g,
		store:       st,
		clock:       time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		invocations: make(map[string]*atomic.Int64),
	}
	g.now = func() time.Time { return h.clock }

	for _, name := range reg.Names() {
		counter := &atomic.Int64{}
		h.invocations[name] = counter
		toolName := name
		require.NoError(t, g.RegisterHandler(toolName, func(ctx context.Context, args map[string]interface{}, tctx ThreadContext) (interface{}, error) {
			counter.Add(1)
			return map[string]interface{}{"tool": toolName, "ok": true}, nil
		}))
	}

	return h
}

func (h *testHarness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

func (h *testHarness) invoked(tool string) int64 {
	return h.invocations[tool].Load()
}

func (h *testHarness) newRun(t *testing.T, id, operator string) *store.AgentRun {
	t.Helper()
	run := &store.AgentRun{
		ID:         id,
		ThreadID:   "thread-" + id,
		OperatorID: operator,
		Status:     store.RunRunning,
		CreatedAt:  h.clock,
		UpdatedAt:  h.clock,
	}
	require.NoError(t, h.store.CreateRun(context.Background(), run))
	return run
}

func (h *testHarness) propose(t *testing.T, run *store.AgentRun, tool, argsJSON string) (Result, error) {
	t.Helper()
	call := &store.ToolCall{ToolName: tool, ArgsJSON: argsJSON}
	return h.gateway.ExecuteToolCall(context.Background(), call, run, ThreadContext{OperatorID: run.OperatorID, DealID: run.DealID})
}

func TestAutoExecuteLowRiskRead(t *testing.T) {
	h := newHarness(t, policy.Default())
	run := h.newRun(t, "run-1", "op-1")

	res, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.NoError(t, err)

	assert.Equal(t, DispositionExecuted, res.Disposition)
	assert.Empty(t, res.ApprovalID)
	assert.EqualValues(t, 1, h.invoked("search_deals"))

	logs := h.store.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, ModeAuto, logs[0].Mode)
	assert.True(t, logs[0].Success)
}

func TestExternalImpactNeverAutoExecutes(t *testing.T) {
	// Deliberately permissive: every toggle on, every risk level enabled.
	pol := policy.Default()
	pol.AutoExecuteEnabled = true
	for _, risk := range []registry.RiskLevel{registry.RiskLow, registry.RiskMedium, registry.RiskHigh, registry.RiskCritical} {
		pol.AutoExecuteByRisk[risk] = true
	}

	h := newHarness(t, pol)
	run := h.newRun(t, "run-1", "op-1")

	res, err := h.propose(t, run, "send_email",
		`{"to": "cfo@acme.example", "subject": "Q3 pricing", "body": "see attached"}`)
	require.NoError(t, err)

	assert.Equal(t, DispositionWaitingApproval, res.Disposition)
	assert.NotEmpty(t, res.ApprovalID)
	assert.EqualValues(t, 0, h.invoked("send_email"))

	updated, err := h.store.FindRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RunWaitingApproval, updated.Status)
}

func TestKillSwitchGatesEverything(t *testing.T) {
	pol := policy.Default()
	pol.AutoExecuteEnabled = false

	h := newHarness(t, pol)
	run := h.newRun(t, "run-1", "op-1")

	res, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.NoError(t, err)

	assert.Equal(t, DispositionWaitingApproval, res.Disposition)
	assert.EqualValues(t, 0, h.invoked("search_deals"))
}

func TestMediumRiskWriteWaitsUnderDefaultPolicy(t *testing.T) {
	h := newHarness(t, policy.Default())
	run := h.newRun(t, "run-1", "op-1")

	res, err := h.propose(t, run, "update_deal_stage", `{"deal_id": "deal_42", "stage": "negotiation"}`)
	require.NoError(t, err)

	assert.Equal(t, DispositionWaitingApproval, res.Disposition)
	assert.EqualValues(t, 0, h.invoked("update_deal_stage"))
}

func TestUnknownToolRejected(t *testing.T) {
	h := newHarness(t, policy.Default())
	run := h.newRun(t, "run-1", "op-1")

	_, err := h.propose(t, run, "drop_database", `{}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)

	// Nothing was persisted for the rejected proposal.
	count, cerr := h.store.CountToolCallsByRun(context.Background(), run.ID)
	require.NoError(t, cerr)
	assert.Zero(t, count)
}

func TestDisabledToolHardError(t *testing.T) {
	pol := policy.Default()
	pol.DisabledTools = []string{"send_email"}

	h := newHarness(t, pol)
	run := h.newRun(t, "run-1", "op-1")

	_, err := h.propose(t, run, "send_email",
		`{"to": "cfo@acme.example", "subject": "hi", "body": "hello"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolDisabled)
	assert.Contains(t, err.Error(), "disabled")

	// A disabled tool cannot even be queued for approval.
	assert.Empty(t, h.store.Approvals())
	assert.EqualValues(t, 0, h.invoked("send_email"))
}

func TestPerRunCallBudget(t *testing.T) {
	pol := policy.Default()
	pol.MaxToolCallsPerRun = 50

	h := newHarness(t, pol)
	run := h.newRun(t, "run-1", "op-1")

	for i := 0; i < 50; i++ {
		_, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
		require.NoError(t, err)
	}

	_, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "Rate limit exceeded")
	assert.EqualValues(t, 50, h.invoked("search_deals"))
}

func TestRateLimitPrecedesPolicy(t *testing.T) {
	// A tool that would wait for approval still hits the rate limit first,
	// so no approval row is created for the over-budget call.
	pol := policy.Default()
	pol.MaxToolCallsPerRun = 1

	h := newHarness(t, pol)
	run := h.newRun(t, "run-1", "op-1")

	_, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.NoError(t, err)

	_, err = h.propose(t, run, "send_email",
		`{"to": "cfo@acme.example", "subject": "hi", "body": "hello"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, h.store.Approvals())
}

func TestOperatorRunRateLimit(t *testing.T) {
	pol := policy.Default()
	pol.MaxRunsPerMinute = 3

	h := newHarness(t, pol)
	for i := 0; i < 3; i++ {
		h.newRun(t, fmt.Sprintf("run-%d", i), "op-1")
	}
	run := h.newRun(t, "run-over", "op-1")

	_, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Runs older than the window stop counting.
	h.advance(2 * time.Minute)
	res, err := h.propose(t, run, "search_deals", `{"query": "acme"}`)
	require.NoError(t, err)
	assert.Equal(t, DispositionExecuted, res.Disposition)
}

func TestValidationFailureHasNoSideEffects(t *testing.T) {
	h := newHarness(t, policy.Default())
	run := h.newRun(t, "run-1", "op-1")

	_, err := h.propose(t, run, "get_deal", `{"deal_id": "order-66"}`)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "value does not match pattern")

	count, cerr := h.store.CountToolCallsByRun(context.Background(), run.ID)
	require.NoError(t, cerr)
	assert.Zero(t, count)
	assert.EqualValues(t, 0, h.invoked("get_deal"))
}

func TestUnregisteredHandlerFailsCall(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	st := store.NewMemoryStore()
	g, err := New(Config{Registry: reg, Policy: policy.Default(), Store: st, Logger: zerolog.Nop()})
	require.NoError(t, err)

	run := &store.AgentRun{ID: "run-1", OperatorID: "op-1", Status: store.RunRunning}
	require.NoError(t, st.CreateRun(context.Background(), run))

	call := &store.ToolCall{ToolName: "search_deals", ArgsJSON: `{"query": "acme"}`}
	_, err = g.ExecuteToolCall(context.Background(), call, run, ThreadContext{OperatorID: "op-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerNotRegistered)
}

func TestRegisterHandlerRejectsUnknownTool(t *testing.T) {
	h := newHarness(t, policy.Default())

	err := h.gateway.RegisterHandler("launch_missiles", func(context.Context, map[string]interface{}, ThreadContext) (interface{}, error) {
		return nil, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestPanickingHandlerIsContained(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	st := store.NewMemoryStore()
	g, err := New(Config{Registry: reg, Policy: policy.Default(), Store: st, Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, g.RegisterHandler("search_deals", func(context.Context, map[string]interface{}, ThreadContext) (interface{}, error) {
		panic("backend unreachable")
	}))

	run := &store.AgentRun{ID: "run-1", OperatorID: "op-1", Status: store.RunRunning}
	require.NoError(t, st.CreateRun(context.Background(), run))

	call := &store.ToolCall{ToolName: "search_deals", ArgsJSON: `{"query": "acme"}`}
	_, err = g.ExecuteToolCall(context.Background(), call, run, ThreadContext{OperatorID: "op-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The failure is audited, not dropped.
	logs := st.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Success)
	assert.Contains(t, logs[0].ErrorMessage, "backend unreachable")

	persisted, err := st.FindToolCall(context.Background(), call.ID)
	require.NoError(t, err)
	assert.Equal(t, store.CallFailed, persisted.Status)
}

func TestFailingHandlerAudited(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	st := store.NewMemoryStore()
	g, err := New(Config{Registry: reg, Policy: policy.Default(), Store: st, Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, g.RegisterHandler("search_deals", func(context.Context, map[string]interface{}, ThreadContext) (interface{}, error) {
		return nil, errors.New("upstream timeout")
	}))

	run := &store.AgentRun{ID: "run-1", OperatorID: "op-1", Status: store.RunRunning}
	require.NoError(t, st.CreateRun(context.Background(), run))

	call := &store.ToolCall{ToolName: "search_deals", ArgsJSON: `{"query": "acme"}`}
	_, err = g.ExecuteToolCall(context.Background(), call, run, ThreadContext{OperatorID: "op-1"})
	require.Error(t, err)

	logs := st.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "upstream timeout", logs[0].ErrorMessage)
}

func TestNewRequiresRegistryAndStore(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	_, err = New(Config{Policy: policy.Default(), Store: store.NewMemoryStore()})
	assert.ErrorContains(t, err, "registry")

	_, err = New(Config{Registry: reg, Policy: policy.Default()})
	assert.ErrorContains(t, err, "store")

	bad := policy.Default()
	bad.MaxToolCallsPerRun = 0
	_, err = New(Config{Registry: reg, Policy: bad, Store: store.NewMemoryStore()})
	assert.ErrorContains(t, err, "safety policy")
}
