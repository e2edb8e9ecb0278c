package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	sweeps  atomic.Int64
	expired int
	err     error
}

func (f *fakeExpirer) ExpireStaleApprovals(context.Context) (int, error) {
	f.sweeps.Add(1)
	return f.expired, f.err
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, "", zerolog.Nop())
	assert.ErrorContains(t, err, "expirer")

	_, err = New(&fakeExpirer{}, "every 5 minutes", zerolog.Nop())
	assert.ErrorContains(t, err, "invalid sweep schedule")

	sw, err := New(&fakeExpirer{}, "", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, sw.schedule)

	_, err = New(&fakeExpirer{}, "*/5 * * * *", zerolog.Nop())
	assert.NoError(t, err)
}

func TestSweepDrivesExpirer(t *testing.T) {
	expirer := &fakeExpirer{expired: 2}
	sw, err := New(expirer, DefaultSchedule, zerolog.Nop())
	require.NoError(t, err)

	sw.Sweep()
	sw.Sweep()
	assert.EqualValues(t, 2, expirer.sweeps.Load())
}

func TestSweepSurvivesExpirerFailure(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("store offline")}
	sw, err := New(expirer, DefaultSchedule, zerolog.Nop())
	require.NoError(t, err)

	assert.NotPanics(t, sw.Sweep)
	assert.EqualValues(t, 1, expirer.sweeps.Load())
}

func TestStartStop(t *testing.T) {
	sw, err := New(&fakeExpirer{}, DefaultSchedule, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, sw.Start())
	assert.ErrorContains(t, sw.Start(), "already started")

	sw.Stop()

	// Stop is idempotent and Start works again after it.
	sw.Stop()
	require.NoError(t, sw.Start())
	sw.Stop()
}
