package report

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/fogtools/fogtest/pkg/artifact"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func testRun() model.RunDescriptor {
	tasks := []model.TaskResult{
		{
			Branch: "master", Platform: "linux",
			Status:          model.StatusPass,
			InstanceID:      "i-1",
			SnapshotID:      "snap-1",
			RestoreDuration: 90 * time.Second,
			TestDuration:    120 * time.Second,
		},
		{
			Branch: "master", Platform: "windows",
			Status:          model.StatusFail,
			InstanceID:      "i-2",
			SnapshotID:      "snap-2",
			RestoreDuration: 95 * time.Second,
			TestDuration:    64 * time.Second,
			ExitCode:        3,
		},
		{
			Branch: "dev", Platform: "linux",
			Status: model.StatusError,
			Error:  "instance not found: fogtesting-linux",
		},
		{
			Branch: "dev", Platform: "windows",
			Status: model.StatusSkipped,
		},
	}
	desc := model.RunDescriptor{
		ID:        model.NewRunID(),
		StartedAt: time.Now(),
		Duration:  6 * time.Minute,
		Matrix: model.Matrix{
			Branches:  []model.Branch{"master", "dev"},
			Platforms: []model.Platform{"linux", "windows"},
		},
		Branches: []model.BranchResult{
			{Branch: "master", Tasks: tasks[0:2]},
			{Branch: "dev", Tasks: tasks[2:4]},
		},
	}
	for _, br := range desc.Branches {
		for _, task := range br.Tasks {
			desc.Stats.Account(task)
		}
	}
	desc.Status = desc.Stats.Status()
	return desc
}

func TestRender(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	desc := testRun()
	Render(buf, desc)

	out := buf.String()
	assert.Contains(t, out, desc.ID)
	assert.Contains(t, out, "master")
	assert.Contains(t, out, "windows")
	assert.Contains(t, out, "✓ pass")
	assert.Contains(t, out, "✗ fail")
	assert.Contains(t, out, "- skip")
	assert.Contains(t, out, "! error")
	assert.Contains(t, out, "120.0s")
	assert.Contains(t, out, "instance not found")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "4 cells")
	assert.Contains(t, out, "1 passed, 1 failed, 1 errored, 1 skipped")
}

func TestSummary(t *testing.T) {
	color.NoColor = true

	desc := testRun()
	assert.Equal(t, "ERROR 1/4 passed, 1 failed, 1 errored, 1 skipped (360.0s)", Summary(desc))

	desc.Stats = model.RunStats{Cells: 2, Passed: 2}
	desc.Status = desc.Stats.Status()
	desc.Duration = 30 * time.Second
	assert.Equal(t, "PASS 2/2 passed (30.0s)", Summary(desc))

	desc.Stats = model.RunStats{Cells: 2, Passed: 1, Failed: 1}
	desc.Status = desc.Stats.Status()
	assert.Equal(t, "FAIL 1/2 passed, 1 failed (30.0s)", Summary(desc))

	desc.Stats = model.RunStats{Cells: 2, Skipped: 2}
	desc.Status = desc.Stats.Status()
	assert.Equal(t, "SKIP 0/2 passed, 2 skipped (30.0s)", Summary(desc))
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	sink := artifact.NewLocal(fs)

	desc := testRun()
	require.NoError(t, Archive(ctx, sink, desc))

	rdr, err := sink.Get(ctx, model.GetPathToRunReport(desc.ID))
	require.NoError(t, err)
	defer rdr.Close()

	buf, err := io.ReadAll(rdr)
	require.NoError(t, err)

	var restored model.RunDescriptor
	require.NoError(t, yaml.Unmarshal(buf, &restored))
	assert.Equal(t, desc.ID, restored.ID)
	assert.Equal(t, desc.Stats, restored.Stats)
	assert.Equal(t, desc.Status, restored.Status)
	assert.Len(t, restored.Branches, 2)
	assert.Equal(t, desc.Branches[0].Tasks[0].InstanceID, restored.Branches[0].Tasks[0].InstanceID)
}

func TestCells(t *testing.T) {
	assert.Equal(t, "-", durationCell(0))
	assert.Equal(t, "1.5s", durationCell(1500*time.Millisecond))

	assert.Equal(t, "0", exitCell(model.TaskResult{Status: model.StatusPass}))
	assert.Equal(t, "3", exitCell(model.TaskResult{Status: model.StatusFail, ExitCode: 3}))
	assert.Equal(t, "-", exitCell(model.TaskResult{Status: model.StatusError}))
	assert.Equal(t, "-", exitCell(model.TaskResult{Status: model.StatusSkipped}))
}
