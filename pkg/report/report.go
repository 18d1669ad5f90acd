// Copyright © 2026 Fogtools

// Package report renders run outcomes for humans and archives the run
// descriptor for machines.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/fogtools/fogtest/pkg/artifact"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	yaml "gopkg.in/yaml.v2"
)

// Render writes a results table for the run, one row per cell
func Render(w io.Writer, desc model.RunDescriptor) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Test Run %s (%s)", desc.ID, formatDuration(desc.Duration)))

	t.AppendHeader(table.Row{
		"Branch", "Platform", "Restore", "Test", "Exit", "Status", "Error",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Branch", AutoMerge: true},
		{Name: "Restore", Align: text.AlignRight},
		{Name: "Test", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Error", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, br := range desc.Branches {
		for _, task := range br.Tasks {
			t.AppendRow(table.Row{
				string(task.Branch),
				string(task.Platform),
				durationCell(task.RestoreDuration),
				durationCell(task.TestDuration),
				exitCell(task),
				statusString(task.Status),
				task.Error,
			})
		}
		t.AppendSeparator()
	}

	switch desc.Status {
	case model.StatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case model.StatusSkipped:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d cells", desc.Stats.Cells),
		"",
		formatDuration(desc.Duration),
		"",
		statusString(desc.Status),
		countsString(desc.Stats),
	})

	t.Render()
}

// Summary returns a one line colored digest of the run outcome
func Summary(desc model.RunDescriptor) string {
	detail := fmt.Sprintf("%d/%d passed", desc.Stats.Passed, desc.Stats.Cells)
	if desc.Stats.Failed > 0 {
		detail += fmt.Sprintf(", %d failed", desc.Stats.Failed)
	}
	if desc.Stats.Errored > 0 {
		detail += fmt.Sprintf(", %d errored", desc.Stats.Errored)
	}
	if desc.Stats.Skipped > 0 {
		detail += fmt.Sprintf(", %d skipped", desc.Stats.Skipped)
	}
	detail += fmt.Sprintf(" (%s)", formatDuration(desc.Duration))

	switch desc.Status {
	case model.StatusPass:
		return fmt.Sprintf("%s %s", color.GreenString("PASS"), detail)
	case model.StatusSkipped:
		return fmt.Sprintf("%s %s", color.YellowString("SKIP"), detail)
	case model.StatusError:
		return fmt.Sprintf("%s %s", color.RedString("ERROR"), detail)
	default:
		return fmt.Sprintf("%s %s", color.RedString("FAIL"), detail)
	}
}

// Archive serializes the run descriptor and stores it on the sink as the
// run's report.yaml
func Archive(ctx context.Context, sink artifact.Sink, desc model.RunDescriptor) error {
	buf, err := yaml.Marshal(desc)
	if err != nil {
		return fmt.Errorf("serializing run report: %w", err)
	}
	return sink.Put(ctx, model.GetPathToRunReport(desc.ID), bytes.NewReader(buf))
}

func statusString(status model.Status) string {
	switch status {
	case model.StatusPass:
		return "✓ pass"
	case model.StatusFail:
		return "✗ fail"
	case model.StatusSkipped:
		return "- skip"
	default:
		return "! error"
	}
}

func countsString(s model.RunStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped",
		s.Passed, s.Failed, s.Errored, s.Skipped)
}

func exitCell(task model.TaskResult) string {
	switch task.Status {
	case model.StatusPass, model.StatusFail:
		return strconv.Itoa(task.ExitCode)
	default:
		return "-"
	}
}

func durationCell(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return formatDuration(d)
}

// formatDuration renders seconds with one decimal
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
