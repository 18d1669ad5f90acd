// Copyright © 2026 Fogtools

package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fogtools/fogtest/pkg/model"
	"github.com/fogtools/fogtest/pkg/report"
	"github.com/fogtools/fogtest/pkg/runner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd traverses the matrix once, or repeatedly with --every
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the test driver over the whole branch and platform matrix",
	Long: `Run the test driver over the whole branch and platform matrix.

For every branch, each platform's instance is restored to its clean snapshot
and the driver is launched as '<driver> [driver-args...] <branch> <platform>'.
Platforms of a branch run in parallel and the branch joins on all of them
before the next branch starts. A failing cell does not stop the run unless
--fail-fast is set.

The process exits with 0 when every cell passed, 1 when at least one cell
failed or errored, and 2 on a configuration or orchestration error.`,
	Example: `% fogtest run --branch master --branch dev --platform linux --platform windows --driver ./run-suite.sh
% fogtest run --dry-run
% fogtest run --every 24h --archive s3://fog-qa/runs --metrics --metrics-url http://metrics:8086`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		optionInputs := newCliOptionInputs(config, &fogtestFlags)
		logger, err := optionInputs.getLogger()
		if err != nil {
			wrapFatalWithCodef(2, "get logger: %v", err)
			return
		}
		m := optionInputs.matrix()
		if err = m.Validate(); err != nil {
			wrapFatalWithCodef(2, "invalid test matrix: %v", err)
			return
		}
		p, err := buildProvider(optionInputs, logger)
		if err != nil {
			wrapFatalWithCodef(2, "configure provider: %v", err)
			return
		}

		if fogtestFlags.run.dryRun {
			plans, err := runner.New(p, nil, runner.Logger(logger)).Plan(ctx, m)
			if err != nil {
				wrapFatalWithCodef(2, "resolve plan: %v", err)
				return
			}
			if !renderPlan(os.Stdout, m, plans) {
				osExit(2)
			}
			return
		}

		d, err := optionInputs.driver()
		if err != nil {
			wrapFatalWithCodef(2, "configure driver: %v", err)
			return
		}
		sink, err := optionInputs.sink()
		if err != nil {
			wrapFatalWithCodef(2, "configure archive: %v", err)
			return
		}
		store, err := optionInputs.metricsStore()
		if err != nil {
			wrapFatalWithCodef(2, "configure metrics: %v", err)
			return
		}

		opts := []runner.Option{
			runner.Logger(logger),
			runner.Concurrency(fogtestFlags.run.concurrency),
			runner.FailFast(fogtestFlags.run.failFast),
		}
		if sink != nil {
			opts = append(opts, runner.ArtifactSink(sink))
		}
		if store != nil {
			opts = append(opts, runner.MetricsStore(store))
		}
		r := runner.New(p, d, opts...)

		code := 0
		for {
			desc, err := r.Run(ctx, m)
			if err != nil {
				wrapFatalWithCodef(2, "run failed: %v", err)
				return
			}
			report.Render(os.Stdout, desc)
			infoLogger.Println(report.Summary(desc))
			code = 0
			if desc.Failed() {
				code = 1
			}
			if fogtestFlags.run.every <= 0 {
				break
			}
			logger.Info("waiting before next run",
				zap.Duration("every", fogtestFlags.run.every))
			select {
			case <-ctx.Done():
				if code != 0 {
					osExit(code)
				}
				return
			case <-time.After(fogtestFlags.run.every):
			}
		}
		if code != 0 {
			osExit(code)
		}
	},
}

// renderPlan prints the dry run resolution table and reports whether every
// cell of the matrix resolved
func renderPlan(w io.Writer, m model.Matrix, plans []runner.PlatformPlan) bool {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Platform", "Instance", "ID", "State", "Snapshot", "Problem"})
	ok := true
	for _, plan := range plans {
		if !plan.Resolved() {
			ok = false
		}
		t.AppendRow(table.Row{
			string(plan.Platform),
			m.InstanceName(plan.Platform),
			plan.Instance.ID,
			plan.Instance.State,
			plan.Snapshot.ID,
			plan.Error,
		})
	}
	t.Render()

	branches := make([]string, 0, len(m.Branches))
	for _, b := range m.Branches {
		branches = append(branches, string(b))
	}
	infoLogger.Printf("branches: %s", strings.Join(branches, ", "))
	infoLogger.Printf("%d cells would run", m.Cells())
	return ok
}

func init() {
	addBranchesFlag(runCmd)
	addPlatformsFlag(runCmd)
	addDriverFlag(runCmd)
	addDriverArgFlag(runCmd)
	addDriverTimeoutFlag(runCmd)
	addFailFastFlag(runCmd)
	addDryRunFlag(runCmd)
	addEveryFlag(runCmd)
	addConcurrencyFlag(runCmd)
	addInstancePrefixFlag(runCmd)
	addSnapshotSuffixFlag(runCmd)
	addRegionFlag(runCmd)
	addProfileFlag(runCmd)
	addVolumeTypeFlag(runCmd)
	addKeepVolumesFlag(runCmd)
	addWaitTimeoutFlag(runCmd)
	addArchiveFlag(runCmd)

	rootCmd.AddCommand(runCmd)
}
