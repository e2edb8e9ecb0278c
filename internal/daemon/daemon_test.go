package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealgrid/agentgate/internal/config"
	"github.com/dealgrid/agentgate/internal/logger"
	"github.com/dealgrid/agentgate/pkg/gateway"
	"github.com/dealgrid/agentgate/pkg/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Logging.Console = false
	cfg.Sweeper.Enabled = false
	cfg.ApplyDefaults()
	return cfg
}

func testDaemon(t *testing.T) *Daemon {
	t.Helper()

	cfg := testConfig(t)
	log, err := logger.New(cfg.Logging)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	d, err := New(cfg, log)
	require.NoError(t, err)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := testDaemon(t)

	require.NoError(t, d.Start())
	assert.True(t, d.Status().Running)

	// PID file exists while running
	pid, err := d.lifecycle.GetPID()
	require.NoError(t, err)
	assert.Greater(t, pid, 0)

	require.NoError(t, d.Stop())
	assert.False(t, d.Status().Running)

	_, err = d.lifecycle.GetPID()
	assert.Error(t, err)
}

func TestDaemonDoubleStart(t *testing.T) {
	d := testDaemon(t)

	require.NoError(t, d.Start())
	defer func() { _ = d.Stop() }()

	assert.ErrorContains(t, d.Start(), "already running")
}

func TestDaemonStopWhenNotRunning(t *testing.T) {
	d := testDaemon(t)
	assert.NoError(t, d.Stop())
}

func TestDaemonRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Policy.MaxToolCallsPerRun = 0

	log, err := logger.New(cfg.Logging)
	require.NoError(t, err)
	defer func() { _ = log.Close() }()

	_, err = New(cfg, log)
	assert.Error(t, err)
}

func TestDaemonGatewayEndToEnd(t *testing.T) {
	d := testDaemon(t)
	require.NoError(t, d.Start())
	defer func() { _ = d.Stop() }()

	ctx := context.Background()
	st := d.Store()

	run := &store.AgentRun{
		ID:         "run-e2e",
		ThreadID:   "thread-e2e",
		OperatorID: "op-e2e",
		Status:     store.RunRunning,
	}
	require.NoError(t, st.CreateRun(ctx, run))

	res, err := d.Gateway().ExecuteToolCall(ctx, &store.ToolCall{
		ToolName: "search_deals",
		ArgsJSON: `{"query": "acme"}`,
	}, run, gateway.ThreadContext{OperatorID: run.OperatorID})
	require.NoError(t, err)
	assert.Equal(t, gateway.DispositionExecuted, res.Disposition)

	count, err := st.CountToolCallsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDaemonStatusReportsTools(t *testing.T) {
	d := testDaemon(t)
	assert.Equal(t, 14, d.Status().Tools)
}
