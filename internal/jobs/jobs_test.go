package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardRecords/internal/files"
	"wardRecords/internal/logging"
)

type fakeSweeper struct {
	calls atomic.Int32
	last  files.SweepOptions
	err   error
}

func (f *fakeSweeper) Sweep(_ context.Context, opts files.SweepOptions) (*files.SweepReport, error) {
	f.calls.Add(1)
	f.last = opts
	return &files.SweepReport{}, f.err
}

type fakePurger struct {
	calls atomic.Int32
	err   error
}

func (f *fakePurger) DeleteExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return 2, f.err
}

func TestMaintenance_Run(t *testing.T) {
	sw, pu := &fakeSweeper{}, &fakePurger{}
	m := &Maintenance{Sweeper: sw, Sessions: pu, Options: files.SweepOptions{RemoveOrphans: true}, Logger: logging.Discard()}

	m.Run(context.Background())
	assert.EqualValues(t, 1, sw.calls.Load())
	assert.EqualValues(t, 1, pu.calls.Load())
	assert.True(t, sw.last.RemoveOrphans)
	assert.False(t, sw.last.PruneDangling)
}

func TestMaintenance_PurgeFailureStillSweeps(t *testing.T) {
	sw, pu := &fakeSweeper{}, &fakePurger{err: errors.New("locked")}
	(&Maintenance{Sweeper: sw, Sessions: pu, Logger: logging.Discard()}).Run(context.Background())
	assert.EqualValues(t, 1, sw.calls.Load())
}

func TestSchedule_RejectsBadSpec(t *testing.T) {
	_, err := Schedule("not a schedule", &Maintenance{})
	assert.Error(t, err)
}

func TestSchedule_RunsAndStops(t *testing.T) {
	sw := &fakeSweeper{}
	stop, err := Schedule("@every 1s", &Maintenance{Sweeper: sw, Logger: logging.Discard()})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, stop(ctx))
}
