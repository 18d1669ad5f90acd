// Copyright © 2026 Fogtools

package runner

import (
	"io"
	"os"

	"github.com/fogtools/fogtest/pkg/artifact"
	"github.com/fogtools/fogtest/pkg/driver"
	"github.com/fogtools/fogtest/pkg/logging"
	"github.com/fogtools/fogtest/pkg/metrics"
	"github.com/fogtools/fogtest/pkg/provider"
	"go.uber.org/zap"
)

// Runner schedules restores and test driver invocations over a matrix.
type Runner struct {
	provider    provider.Provider
	driver      driver.Driver
	sink        artifact.Sink
	store       metrics.Store
	l           *zap.Logger
	out         io.Writer
	concurrency int
	failFast    bool
}

// Option modifies the behavior of a Runner
type Option func(*Runner)

// Logger sets a logger for the runner
func Logger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.l = l
		}
	}
}

// ArtifactSink archives driver output and run reports on the given sink.
// Without a sink, driver output only goes to the console writer.
func ArtifactSink(s artifact.Sink) Option {
	return func(r *Runner) {
		r.sink = s
	}
}

// MetricsStore publishes a batch of run metrics to the given store once
// the traversal is complete
func MetricsStore(s metrics.Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// Concurrency caps the number of driver invocations running at the same
// time within a branch. Zero or negative means one invocation per platform.
func Concurrency(n int) Option {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// FailFast stops scheduling further branches after a branch reported a
// failed or errored cell. Cells of unscheduled branches are reported as
// skipped, so a run always accounts for every cell of the matrix.
func FailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// Output sets the console writer receiving live driver output
func Output(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

func defaultRunner() *Runner {
	return &Runner{
		l:   logging.MustGetLogger(logging.LogLevelInfo),
		out: os.Stdout,
	}
}

// New builds a runner driving the given provider and test driver
func New(p provider.Provider, d driver.Driver, options ...Option) *Runner {
	r := defaultRunner()
	r.provider = p
	r.driver = d
	for _, apply := range options {
		apply(r)
	}
	return r
}
