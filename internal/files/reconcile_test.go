package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wardRecords/internal/logging"
	"wardRecords/models"
)

func TestSweep_ReportsAndRepairsDrift(t *testing.T) {
	f := newFixture(t, "sweepdrift", 0)
	ctx := context.Background()

	kept, err := f.intake.Accept(ctx, Upload{FieldName: FieldName, Filename: "kept.pdf", ContentType: models.MIMEPDF, Content: strings.NewReader("k")})
	require.NoError(t, err)
	lost, err := f.intake.Accept(ctx, Upload{FieldName: FieldName, Filename: "lost.pdf", ContentType: models.MIMEPDF, Content: strings.NewReader("l")})
	require.NoError(t, err)
	require.NoError(t, os.Remove(lost.Record.StoredPath))

	// An orphan, as left by a failed metadata insert.
	orphan := filepath.Join(f.dir, "1-orphan.pdf")
	require.NoError(t, os.WriteFile(orphan, []byte("o"), 0o644))

	rc, err := NewReconciler(f.repo, f.dir, logging.Discard())
	require.NoError(t, err)
	rc.Grace = 0

	// Dry run changes nothing.
	report, err := rc.Sweep(ctx, SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, report.Orphans)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, lost.Record.ID, report.Dangling[0].ID)
	assert.Zero(t, report.RemovedOrphans)
	assert.Zero(t, report.PrunedRecords)
	assert.FileExists(t, orphan)
	assert.Len(t, f.records(t), 2)

	// Repair.
	report, err = rc.Sweep(ctx, SweepOptions{RemoveOrphans: true, PruneDangling: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.RemovedOrphans)
	assert.Equal(t, 1, report.PrunedRecords)
	assert.NoFileExists(t, orphan)
	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, kept.Record.ID, recs[0].ID)

	// Idempotent.
	report, err = rc.Sweep(ctx, SweepOptions{RemoveOrphans: true, PruneDangling: true})
	require.NoError(t, err)
	assert.Empty(t, report.Orphans)
	assert.Empty(t, report.Dangling)
}

func TestSweep_GraceProtectsFreshFiles(t *testing.T) {
	f := newFixture(t, "sweepgrace", 0)
	fresh := filepath.Join(f.dir, "2-inflight.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	rc, err := NewReconciler(f.repo, f.dir, logging.Discard())
	require.NoError(t, err)

	report, err := rc.Sweep(context.Background(), SweepOptions{RemoveOrphans: true})
	require.NoError(t, err)
	assert.Empty(t, report.Orphans)
	assert.FileExists(t, fresh)
}
