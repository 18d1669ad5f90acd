package model

import (
	"time"

	"github.com/segmentio/ksuid"
)

// Status qualifies the outcome of a run, a branch, or a single task
type Status string

const (
	// StatusPass means the test driver exited zero
	StatusPass Status = "pass"

	// StatusFail means the test driver ran and exited non-zero
	StatusFail Status = "fail"

	// StatusError means the task never got a verdict: lookup, restore or
	// spawn failed before the driver could finish
	StatusError Status = "error"

	// StatusSkipped means the task was never attempted, e.g. scheduling
	// stopped after an earlier branch failed
	StatusSkipped Status = "skipped"
)

// Succeeded is true only for a passed run
func (s Status) Succeeded() bool {
	return s == StatusPass
}

// TaskResult is the outcome of one (branch, platform) cell: a clean restore
// of the platform's instance followed by one test driver invocation.
type TaskResult struct {
	Branch   Branch   `json:"branch" yaml:"branch"`
	Platform Platform `json:"platform" yaml:"platform"`
	Status   Status   `json:"status" yaml:"status"`

	// Resolved provider handles, when the lookups got that far.
	InstanceID string `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`

	StartedAt       time.Time     `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	RestoreDuration time.Duration `json:"restore_duration,omitempty" yaml:"restore_duration,omitempty"`
	TestDuration    time.Duration `json:"test_duration,omitempty" yaml:"test_duration,omitempty"`

	ExitCode int    `json:"exit_code" yaml:"exit_code"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	LogPath  string `json:"log,omitempty" yaml:"log,omitempty"`
}

// BranchResult groups the task results of a single branch iteration
type BranchResult struct {
	Branch    Branch        `json:"branch" yaml:"branch"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Tasks     []TaskResult  `json:"tasks" yaml:"tasks"`
	Stats     RunStats      `json:"stats" yaml:"stats"`
}

// RunStats tallies task outcomes
type RunStats struct {
	Cells   int `json:"cells" yaml:"cells"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Errored int `json:"errored" yaml:"errored"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Account adds one task outcome to the tally
func (s *RunStats) Account(t TaskResult) {
	s.Cells++
	switch t.Status {
	case StatusPass:
		s.Passed++
	case StatusFail:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Errored++
	}
}

// Merge folds another tally into this one
func (s *RunStats) Merge(o RunStats) {
	s.Cells += o.Cells
	s.Passed += o.Passed
	s.Failed += o.Failed
	s.Errored += o.Errored
	s.Skipped += o.Skipped
}

// Status derives the overall verdict for the tally
func (s RunStats) Status() Status {
	switch {
	case s.Errored > 0:
		return StatusError
	case s.Failed > 0:
		return StatusFail
	case s.Passed == 0 && s.Skipped > 0:
		return StatusSkipped
	default:
		return StatusPass
	}
}

// RunDescriptor captures a complete run of the matrix: which plan ran, when,
// and how every cell fared. It is the document persisted as report.yaml.
type RunDescriptor struct {
	ID        string         `json:"id" yaml:"id"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
	Matrix    Matrix         `json:"matrix" yaml:"matrix"`
	Branches  []BranchResult `json:"branches" yaml:"branches"`
	Stats     RunStats       `json:"stats" yaml:"stats"`
	Status    Status         `json:"status" yaml:"status"`
}

// Failed is true when at least one cell did not pass
func (r RunDescriptor) Failed() bool {
	return r.Stats.Failed+r.Stats.Errored > 0
}

// NewRunID yields a sortable unique identifier for a run
func NewRunID() string {
	return ksuid.New().String()
}

// GetPathToRunReport locates a run's report document relative to an
// artifact sink root
func GetPathToRunReport(runID string) string {
	return "runs/" + runID + "/report.yaml"
}

// GetPathToTaskLog locates the archived driver output of one cell relative
// to an artifact sink root
func GetPathToTaskLog(runID string, b Branch, p Platform) string {
	return "runs/" + runID + "/" + string(b) + "/" + string(p) + ".log"
}
