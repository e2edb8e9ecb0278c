package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLiteStore(SQLiteConfig{
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := &AgentRun{
		ID:         "run-1",
		ThreadID:   "thread-1",
		OperatorID: "op-1",
		Status:     RunRunning,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, st.CreateRun(ctx, run))

	call := &ToolCall{
		ID:       "call-1",
		RunID:    run.ID,
		ToolName: "send_email",
		ArgsJSON: `{"to": "cfo@acme.example"}`,
		Status:   CallPending,
	}
	require.NoError(t, st.CreateToolCall(ctx, call))

	approval := &ApprovalRequest{
		ID:         "appr-1",
		RunID:      run.ID,
		ToolCallID: call.ID,
		OperatorID: "op-1",
		ToolName:   "send_email",
		Status:     ApprovalPending,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	require.NoError(t, st.CreateApproval(ctx, approval))

	found, err := st.FindApproval(ctx, "appr-1")
	require.NoError(t, err)
	assert.Equal(t, "send_email", found.ToolName)
	assert.Equal(t, ApprovalPending, found.Status)

	foundCall, err := st.FindToolCall(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, foundCall.RunID)

	foundRun, err := st.FindRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunRunning, foundRun.Status)

	count, err := st.CountToolCallsByRun(ctx, run.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSQLiteStoreNotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.FindApproval(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.FindToolCall(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.FindRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.FindThread(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreConditionalUpdateGuard(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateApproval(ctx, &ApprovalRequest{
		ID:        "appr-1",
		Status:    ApprovalPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	decidedAt := time.Now()
	applied, err := st.UpdateApprovalIf(ctx, "appr-1", ApprovalPending, &ApprovalRequest{
		Status:    ApprovalApproved,
		DecidedBy: "op-1",
		DecidedAt: &decidedAt,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// Losing side of a race: guard no longer matches.
	applied, err = st.UpdateApprovalIf(ctx, "appr-1", ApprovalPending, &ApprovalRequest{
		Status:    ApprovalRejected,
		DecidedBy: "op-2",
	})
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := st.FindApproval(ctx, "appr-1")
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, found.Status)
	assert.Equal(t, "op-1", found.DecidedBy)
}

func TestSQLiteStorePendingQueueOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"appr-b", "appr-a", "appr-c"} {
		require.NoError(t, st.CreateApproval(ctx, &ApprovalRequest{
			ID:         id,
			OperatorID: "op-1",
			Status:     ApprovalPending,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
			ExpiresAt:  base.Add(time.Hour),
		}))
	}
	require.NoError(t, st.CreateApproval(ctx, &ApprovalRequest{
		ID: "other-op", OperatorID: "op-2", Status: ApprovalPending,
		CreatedAt: base, ExpiresAt: base.Add(time.Hour),
	}))

	pending, err := st.PendingApprovalsByOperator(ctx, "op-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)

	// Oldest first.
	assert.Equal(t, "appr-b", pending[0].ID)
	assert.Equal(t, "appr-a", pending[1].ID)
	assert.Equal(t, "appr-c", pending[2].ID)
}

func TestSQLiteStoreStaleApprovals(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, st.CreateApproval(ctx, &ApprovalRequest{
		ID: "old", Status: ApprovalPending, ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, st.CreateApproval(ctx, &ApprovalRequest{
		ID: "fresh", Status: ApprovalPending, ExpiresAt: now.Add(time.Hour),
	}))

	stale, err := st.StaleApprovals(ctx, now)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)
}

func TestSQLiteStoreAuditRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateExecutionLog(ctx, &ExecutionLog{
		RunID:      "run-1",
		ToolCallID: "call-1",
		ToolName:   "search_deals",
		Mode:       "auto",
		Success:    true,
		CreatedAt:  time.Now(),
	}))

	require.NoError(t, st.CreateEvent(ctx, &Event{
		ID:          "ev-1",
		Type:        "tool_completed",
		RunID:       "run-1",
		Timestamp:   time.Now(),
		PayloadJSON: `{"tool": "search_deals"}`,
	}))
}
