package metrics

import (
	"github.com/fogtools/fogtest/pkg/model"
)

const (
	taskMeasurement = "task"
	runMeasurement  = "run"
)

// FromRun flattens a run descriptor into a batch of measurement points:
// one per task, tagged by run, branch, platform and status, plus one
// summarizing the whole run.
func FromRun(run model.RunDescriptor) []MetricPoint {
	points := make([]MetricPoint, 0, run.Stats.Cells+1)
	for _, branch := range run.Branches {
		for _, task := range branch.Tasks {
			ts := task.StartedAt
			if ts.IsZero() {
				ts = run.StartedAt
			}
			points = append(points, MetricPoint{
				Measurement: taskMeasurement,
				Tags: map[string]string{
					"run_id":   run.ID,
					"branch":   string(task.Branch),
					"platform": string(task.Platform),
					"status":   string(task.Status),
				},
				Fields: map[string]interface{}{
					"restore_seconds": task.RestoreDuration.Seconds(),
					"test_seconds":    task.TestDuration.Seconds(),
					"exit_code":       int64(task.ExitCode),
				},
				Timestamp: ts,
			})
		}
	}
	points = append(points, MetricPoint{
		Measurement: runMeasurement,
		Tags: map[string]string{
			"run_id": run.ID,
			"status": string(run.Status),
		},
		Fields: map[string]interface{}{
			"cells":            int64(run.Stats.Cells),
			"passed":           int64(run.Stats.Passed),
			"failed":           int64(run.Stats.Failed),
			"errored":          int64(run.Stats.Errored),
			"skipped":          int64(run.Stats.Skipped),
			"duration_seconds": run.Duration.Seconds(),
		},
		Timestamp: run.StartedAt,
	})
	return points
}
