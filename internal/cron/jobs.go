package cron

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// TempSweepJob removes entries of Dir whose modification time is older
// than TTL. Directories are removed with their contents.
type TempSweepJob struct {
	Dir          string
	TTL          time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/10 * * * *"

	now func() time.Time
}

// Compile-time interface check.
var _ Job = (*TempSweepJob)(nil)

// Name implements Job.
func (j *TempSweepJob) Name() string { return "temp_sweep" }

// Schedule implements Job.
func (j *TempSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run implements Job. A missing Dir is not an error.
func (j *TempSweepJob) Run(ctx context.Context) error {
	entries, err := os.ReadDir(j.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cron: read %s: %w", j.Dir, err)
	}

	now := time.Now
	if j.now != nil {
		now = j.now
	}
	cutoff := now().Add(-j.TTL)

	var removed int
	var errs []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(j.Dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 && j.Logger != nil {
		j.Logger.Info("cron: removed stale work files", "dir", j.Dir, "count", removed)
	}
	return errors.Join(errs...)
}
