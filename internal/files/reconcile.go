package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"wardRecords/models"
)

// RecordStore is what a sweep needs from the metadata table.
type RecordStore interface {
	List(ctx context.Context) ([]models.UploadedFile, error)
	Delete(ctx context.Context, id int64) error
}

// SweepOptions selects which drift a sweep repairs. The zero value only reports.
type SweepOptions struct {
	RemoveOrphans bool // delete files no record points at
	PruneDangling bool // delete records whose file is gone
}

// SweepReport lists the drift found between the upload directory and the records.
type SweepReport struct {
	Orphans        []string
	Dangling       []models.UploadedFile
	RemovedOrphans int
	PrunedRecords  int
}

// Reconciler finds and optionally repairs drift left by the untransacted
// write-then-insert in Intake.
type Reconciler struct {
	records RecordStore
	dir     string
	logger  *slog.Logger
	// Grace skips files younger than this; they may belong to an upload
	// whose insert has not happened yet.
	Grace time.Duration
}

func NewReconciler(records RecordStore, dir string, logger *slog.Logger) (*Reconciler, error) {
	abs, err := ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{records: records, dir: abs, logger: logger, Grace: time.Minute}, nil
}

// Sweep compares the upload directory with the records. Running it again after
// a repairing sweep reports nothing new.
func (r *Reconciler) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	recs, err := r.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	report := &SweepReport{}
	referenced := make(map[string]bool, len(recs))
	for _, rec := range recs {
		p, err := filepath.Abs(rec.StoredPath)
		if err != nil {
			p = rec.StoredPath
		}
		referenced[filepath.Clean(p)] = true
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			report.Dangling = append(report.Dangling, rec)
		} else if err != nil {
			r.logger.WarnContext(ctx, "sweep: stat stored file", slog.Int64("id", rec.ID), slog.Any("error", err))
		}
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := time.Now().Add(-r.Grace)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(r.dir, e.Name())
		if referenced[p] {
			continue
		}
		if r.Grace > 0 {
			if info, err := e.Info(); err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		report.Orphans = append(report.Orphans, p)
	}

	if opts.RemoveOrphans {
		for _, p := range report.Orphans {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				r.logger.ErrorContext(ctx, "sweep: remove orphan", slog.String("path", p), slog.Any("error", err))
				continue
			}
			report.RemovedOrphans++
		}
	}
	if opts.PruneDangling {
		for _, rec := range report.Dangling {
			if err := r.records.Delete(ctx, rec.ID); err != nil {
				r.logger.ErrorContext(ctx, "sweep: prune record", slog.Int64("id", rec.ID), slog.Any("error", err))
				continue
			}
			report.PrunedRecords++
		}
	}
	r.logger.InfoContext(ctx, "sweep finished",
		slog.Int("orphans", len(report.Orphans)), slog.Int("dangling", len(report.Dangling)),
		slog.Int("removed", report.RemovedOrphans), slog.Int("pruned", report.PrunedRecords))
	return report, nil
}
