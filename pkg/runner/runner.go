// Copyright © 2026 Fogtools

// Package runner traverses the test matrix.
//
// Branches run strictly one after another. Inside a branch, each platform's
// instance is restored to its clean state in listed order, and the test
// driver for that platform is launched as soon as its restore completes.
// The branch joins on all of its driver invocations before the next branch
// starts.
//
// A failing cell never stops the traversal on its own: the failure policy
// is per-cell isolation, with an optional fail-fast mode that stops
// scheduling further branches once a branch reported failures.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fogtools/fogtest/pkg/driver"
	"github.com/fogtools/fogtest/pkg/metrics"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/fogtools/fogtest/pkg/report"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Run traverses the whole matrix once and reports every cell's outcome.
//
// The returned error covers orchestration failures only (an invalid matrix,
// an unreachable artifact sink): test failures and per-cell errors are
// recorded in the descriptor instead.
func (r *Runner) Run(ctx context.Context, m model.Matrix) (model.RunDescriptor, error) {
	desc := model.RunDescriptor{
		ID:        model.NewRunID(),
		StartedAt: time.Now(),
		Matrix:    m,
	}
	if err := m.Validate(); err != nil {
		return desc, err
	}

	l := r.l.With(zap.String("run_id", desc.ID))
	l.Info("run starting",
		zap.Int("branches", len(m.Branches)),
		zap.Int("platforms", len(m.Platforms)),
		zap.Int("cells", m.Cells()),
		zap.Stringer("provider", r.provider),
		zap.String("driver", r.driver.String()),
	)

	var failed bool
	for _, branch := range m.Branches {
		if (r.failFast && failed) || ctx.Err() != nil {
			desc.Branches = append(desc.Branches, r.skipBranch(m, branch))
			continue
		}
		br := r.runBranch(ctx, l, desc.ID, m, branch)
		desc.Branches = append(desc.Branches, br)
		if br.Stats.Failed+br.Stats.Errored > 0 {
			failed = true
		}
	}

	for _, br := range desc.Branches {
		desc.Stats.Merge(br.Stats)
	}
	desc.Duration = time.Since(desc.StartedAt)
	desc.Status = desc.Stats.Status()
	l.Info("run complete",
		zap.String("status", string(desc.Status)),
		zap.Int("passed", desc.Stats.Passed),
		zap.Int("failed", desc.Stats.Failed),
		zap.Int("errored", desc.Stats.Errored),
		zap.Int("skipped", desc.Stats.Skipped),
		zap.Duration("duration", desc.Duration),
	)

	if r.store != nil {
		if err := r.store.WriteBatch(ctx, metrics.FromRun(desc)); err != nil {
			l.Warn("could not publish run metrics", zap.Error(err))
		}
	}
	if r.sink != nil {
		if err := report.Archive(ctx, r.sink, desc); err != nil {
			return desc, err
		}
		l.Info("run report archived",
			zap.String("sink", r.sink.String()),
			zap.String("path", model.GetPathToRunReport(desc.ID)))
	}
	return desc, nil
}

func (r *Runner) runBranch(ctx context.Context, l *zap.Logger, runID string, m model.Matrix, branch model.Branch) model.BranchResult {
	br := model.BranchResult{Branch: branch, StartedAt: time.Now()}
	lb := l.With(zap.String("branch", string(branch)))
	if len(m.Platforms) == 0 {
		lb.Info("no platforms configured, nothing to run")
		return br
	}
	lb.Info("branch starting")

	tasks := make([]model.TaskResult, len(m.Platforms))
	n := r.concurrency
	if n <= 0 || n > len(m.Platforms) {
		n = len(m.Platforms)
	}
	workers := pool.New().WithMaxGoroutines(n)

	for i, platform := range m.Platforms {
		// each task owns its slot, so concurrent writers never share state
		task := &tasks[i]
		task.Branch = branch
		task.Platform = platform
		task.StartedAt = time.Now()

		if ctx.Err() != nil {
			task.Status = model.StatusSkipped
			task.Error = ctx.Err().Error()
			continue
		}

		if err := r.prepare(ctx, lb, m, task); err != nil {
			task.Status = model.StatusError
			task.Error = err.Error()
			lb.Error("could not prepare clean state",
				zap.String("platform", string(platform)),
				zap.Error(err))
			continue
		}

		workers.Go(func() {
			defer func() {
				if p := recover(); p != nil {
					task.Status = model.StatusError
					task.Error = fmt.Sprintf("test driver panicked: %v", p)
				}
			}()
			r.invoke(ctx, lb, runID, task)
		})
	}
	workers.Wait()

	br.Tasks = tasks
	for _, t := range tasks {
		br.Stats.Account(t)
	}
	br.Duration = time.Since(br.StartedAt)
	lb.Info("branch complete",
		zap.Int("passed", br.Stats.Passed),
		zap.Int("failed", br.Stats.Failed),
		zap.Int("errored", br.Stats.Errored),
		zap.Int("skipped", br.Stats.Skipped),
		zap.Duration("duration", br.Duration),
	)
	return br
}

// prepare resolves the platform's instance and clean snapshot, then blocks
// on the restore. On success the platform is ready for one driver run.
func (r *Runner) prepare(ctx context.Context, l *zap.Logger, m model.Matrix, task *model.TaskResult) error {
	lp := l.With(zap.String("platform", string(task.Platform)))

	inst, err := r.provider.FindInstance(ctx, m.InstanceName(task.Platform))
	if err != nil {
		return err
	}
	task.InstanceID = inst.ID

	snap, err := r.provider.FindSnapshot(ctx, m.SnapshotName(task.Platform))
	if err != nil {
		return err
	}
	task.SnapshotID = snap.ID

	lp.Info("restoring clean state",
		zap.String("instance", inst.ID),
		zap.String("snapshot", snap.ID))
	t0 := time.Now()
	if err := r.provider.Restore(ctx, snap, inst); err != nil {
		return err
	}
	task.RestoreDuration = time.Since(t0)
	lp.Info("clean state restored", zap.Duration("took", task.RestoreDuration))
	return nil
}

func (r *Runner) invoke(ctx context.Context, l *zap.Logger, runID string, task *model.TaskResult) {
	lp := l.With(zap.String("platform", string(task.Platform)))
	out, flush := r.taskOutput(runID, task)

	lp.Info("test driver starting")
	res, err := r.driver.Run(ctx, driver.Task{
		RunID:    runID,
		Branch:   task.Branch,
		Platform: task.Platform,
		Output:   out,
	})
	task.TestDuration = res.Duration
	task.ExitCode = res.ExitCode
	switch {
	case err != nil:
		task.Status = model.StatusError
		task.Error = err.Error()
		lp.Error("test driver did not complete", zap.Error(err))
	case res.ExitCode != 0:
		task.Status = model.StatusFail
		lp.Warn("tests failed",
			zap.Int("exit_code", res.ExitCode),
			zap.Duration("took", res.Duration))
	default:
		task.Status = model.StatusPass
		lp.Info("tests passed", zap.Duration("took", res.Duration))
	}
	flush(ctx)
}

// taskOutput builds the writer receiving the driver output of one cell,
// and the hook archiving it once the driver is done
func (r *Runner) taskOutput(runID string, task *model.TaskResult) (io.Writer, func(context.Context)) {
	if r.sink == nil {
		return r.out, func(context.Context) {}
	}
	spool, err := os.CreateTemp("", "fogtest-*.log")
	if err != nil {
		r.l.Warn("cannot spool driver output, skipping archival", zap.Error(err))
		return r.out, func(context.Context) {}
	}
	return io.MultiWriter(r.out, spool), func(ctx context.Context) {
		defer func() {
			_ = spool.Close()
			_ = os.Remove(spool.Name())
		}()
		key := model.GetPathToTaskLog(runID, task.Branch, task.Platform)
		if _, err := spool.Seek(0, io.SeekStart); err != nil {
			r.l.Warn("cannot archive driver output", zap.String("key", key), zap.Error(err))
			return
		}
		if err := r.sink.Put(ctx, key, spool); err != nil {
			r.l.Warn("cannot archive driver output", zap.String("key", key), zap.Error(err))
			return
		}
		task.LogPath = key
	}
}

func (r *Runner) skipBranch(m model.Matrix, branch model.Branch) model.BranchResult {
	br := model.BranchResult{Branch: branch, StartedAt: time.Now()}
	for _, platform := range m.Platforms {
		t := model.TaskResult{Branch: branch, Platform: platform, Status: model.StatusSkipped}
		br.Tasks = append(br.Tasks, t)
		br.Stats.Account(t)
	}
	return br
}
