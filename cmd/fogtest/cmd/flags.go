// Copyright © 2026 Fogtools

package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/fogtools/fogtest/pkg/artifact"
	"github.com/fogtools/fogtest/pkg/driver"
	"github.com/fogtools/fogtest/pkg/logging"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/fogtools/fogtest/pkg/provider"
	"github.com/fogtools/fogtest/pkg/provider/ectwo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flagsT struct {
	run struct {
		branches    []string
		platforms   []string
		failFast    bool
		dryRun      bool
		every       time.Duration
		concurrency int
	}
	driver struct {
		command string
		args    []string
		timeout time.Duration
	}
	naming struct {
		prefix string
		suffix string
	}
	provider struct {
		region      string
		profile     string
		volumeType  string
		keepVolumes bool
		waitTimeout time.Duration
	}
	archive struct {
		url string
	}
	restore struct {
		platform string
	}
	root struct {
		logLevel string
		cpuProf  bool
		memProf  bool
		metrics  metricsFlags
	}
}

var fogtestFlags = flagsT{}

func addBranchesFlag(cmd *cobra.Command) string {
	branch := "branch"
	cmd.Flags().StringSliceVar(&fogtestFlags.run.branches, branch, nil,
		"A branch to test. Repeat the flag to test several branches in sequence")
	return branch
}

func addPlatformsFlag(cmd *cobra.Command) string {
	platform := "platform"
	cmd.Flags().StringSliceVar(&fogtestFlags.run.platforms, platform, nil,
		"A platform to test on. Repeat the flag to test a branch on several platforms in parallel")
	return platform
}

func addPlatformFlag(cmd *cobra.Command) string {
	platform := "platform"
	cmd.Flags().StringVar(&fogtestFlags.restore.platform, platform, "",
		"The platform whose instance is restored")
	return platform
}

func addDriverFlag(cmd *cobra.Command) string {
	c := "driver"
	cmd.Flags().StringVar(&fogtestFlags.driver.command, c, "",
		"The test driver command. It is invoked once per cell with the branch and the platform appended as arguments")
	return c
}

func addDriverArgFlag(cmd *cobra.Command) string {
	c := "driver-arg"
	cmd.Flags().StringArrayVar(&fogtestFlags.driver.args, c, nil,
		"A fixed argument passed to the test driver before the branch and the platform. Repeat the flag to pass several")
	return c
}

func addDriverTimeoutFlag(cmd *cobra.Command) string {
	c := "timeout"
	cmd.Flags().DurationVar(&fogtestFlags.driver.timeout, c, 0,
		"Time allowed for a single driver invocation, e.g. 2h. Zero means no limit")
	return c
}

func addFailFastFlag(cmd *cobra.Command) string {
	c := "fail-fast"
	cmd.Flags().BoolVar(&fogtestFlags.run.failFast, c, false,
		"Stop scheduling further branches once a branch reported a failed cell. Remaining cells are reported as skipped")
	return c
}

func addDryRunFlag(cmd *cobra.Command) string {
	c := "dry-run"
	cmd.Flags().BoolVar(&fogtestFlags.run.dryRun, c, false,
		"Resolve every cell of the matrix and print the plan without restoring or running anything")
	return c
}

func addEveryFlag(cmd *cobra.Command) string {
	c := "every"
	cmd.Flags().DurationVar(&fogtestFlags.run.every, c, 0,
		"Re-run the whole matrix at this interval until interrupted, e.g. 24h. Zero runs once")
	return c
}

func addConcurrencyFlag(cmd *cobra.Command) string {
	c := "concurrency"
	cmd.Flags().IntVar(&fogtestFlags.run.concurrency, c, 0,
		"Cap on the number of platforms tested concurrently within a branch. Zero tests all platforms at once")
	return c
}

func addInstancePrefixFlag(cmd *cobra.Command) string {
	c := "instance-prefix"
	cmd.Flags().StringVar(&fogtestFlags.naming.prefix, c, "",
		`Name prefix locating the test instances (defaults to "`+model.DefaultInstancePrefix+`")`)
	return c
}

func addSnapshotSuffixFlag(cmd *cobra.Command) string {
	c := "snapshot-suffix"
	cmd.Flags().StringVar(&fogtestFlags.naming.suffix, c, "",
		`Name suffix locating the clean snapshots (defaults to "`+model.DefaultSnapshotSuffix+`")`)
	return c
}

func addRegionFlag(cmd *cobra.Command) string {
	c := "region"
	cmd.Flags().StringVar(&fogtestFlags.provider.region, c, "",
		"AWS region hosting the test bed. Defaults to the usual AWS environment settings")
	return c
}

func addProfileFlag(cmd *cobra.Command) string {
	c := "profile"
	cmd.Flags().StringVar(&fogtestFlags.provider.profile, c, "",
		"Named AWS profile to pick credentials from. Defaults to the usual AWS environment settings")
	return c
}

func addVolumeTypeFlag(cmd *cobra.Command) string {
	c := "volume-type"
	cmd.Flags().StringVar(&fogtestFlags.provider.volumeType, c, "",
		"EBS volume type for restored root volumes, e.g. gp3. Defaults to the type of the volume being replaced")
	return c
}

func addKeepVolumesFlag(cmd *cobra.Command) string {
	c := "keep-volumes"
	cmd.Flags().BoolVar(&fogtestFlags.provider.keepVolumes, c, false,
		"Keep the detached root volumes around instead of deleting them after a restore")
	return c
}

func addWaitTimeoutFlag(cmd *cobra.Command) string {
	c := "wait-timeout"
	cmd.Flags().DurationVar(&fogtestFlags.provider.waitTimeout, c, 0,
		"Time allowed for a full restore sequence on one instance, e.g. 20m")
	return c
}

func addArchiveFlag(cmd *cobra.Command) string {
	c := "archive"
	cmd.Flags().StringVar(&fogtestFlags.archive.url, c, "",
		"Where to archive driver logs and run reports: a directory path or s3://bucket[/prefix]. Empty disables archiving")
	return c
}

func addLogLevel(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&fogtestFlags.root.logLevel, loglevel, "info",
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return loglevel
}

func addCPUProfFlag(cmd *cobra.Command) string {
	c := "cpuprof"
	cmd.PersistentFlags().BoolVar(&fogtestFlags.root.cpuProf, c, false, "Toggle runtime CPU profiling")
	return c
}

func addMemProfFlag(cmd *cobra.Command) string {
	c := "memprof"
	cmd.PersistentFlags().BoolVar(&fogtestFlags.root.memProf, c, false,
		"Poll memory usage in the background and dump heap profiles when it grows (meant for long soak runs)")
	return c
}

func addMetricsFlag(cmd *cobra.Command) string {
	c := "metrics"
	defaultMetrics := false
	fogtestFlags.root.metrics.Enabled = &defaultMetrics
	cmd.PersistentFlags().BoolVar(fogtestFlags.root.metrics.Enabled, c, defaultMetrics,
		"Toggle run metrics collection")
	return c
}

func addMetricsURLFlag(cmd *cobra.Command) string {
	c := "metrics-url"
	cmd.PersistentFlags().StringVar(&fogtestFlags.root.metrics.URL, c, "",
		"Fully qualified URL to an influxdb metrics collector, with optional user and password")
	return c
}

func addMetricsUserFlag(cmd *cobra.Command) string {
	c := "metrics-user"
	cmd.PersistentFlags().StringVar(&fogtestFlags.root.metrics.User, c, "",
		"User to connect to the metrics collector backend. Overrides any user set in the URL")
	return c
}

func addMetricsPasswordFlag(cmd *cobra.Command) string {
	c := "metrics-password"
	cmd.PersistentFlags().StringVar(&fogtestFlags.root.metrics.Password, c, "",
		"Password to connect to the metrics collector backend. Overrides any password set in the URL")
	return c
}

func addMetricsDatabaseFlag(cmd *cobra.Command) string {
	c := "metrics-database"
	cmd.PersistentFlags().StringVar(&fogtestFlags.root.metrics.Database, c, "",
		`The influxdb database receiving run metrics (defaults to "fogtest")`)
	return c
}

/** parameters struct from other formats */

// apply config file + env vars to structure used to parse cli flags
func (flags *flagsT) setDefaultsFromConfig(c *CLIConfig) {
	if len(flags.run.branches) == 0 {
		flags.run.branches = c.Branches
	}
	if len(flags.run.platforms) == 0 {
		flags.run.platforms = c.Platforms
	}
	if flags.run.concurrency == 0 {
		flags.run.concurrency = c.Concurrency
	}
	if flags.driver.command == "" {
		flags.driver.command = c.Driver
	}
	if len(flags.driver.args) == 0 {
		flags.driver.args = c.DriverArgs
	}
	if flags.driver.timeout == 0 {
		flags.driver.timeout = c.Timeout
	}
	if flags.naming.prefix == "" {
		flags.naming.prefix = c.Prefix
	}
	if flags.naming.suffix == "" {
		flags.naming.suffix = c.Suffix
	}
	if flags.provider.region == "" {
		flags.provider.region = c.Region
	}
	if flags.provider.profile == "" {
		flags.provider.profile = c.Profile
	}
	if flags.provider.volumeType == "" {
		flags.provider.volumeType = c.VolumeType
	}
	if c.KeepVolumes {
		flags.provider.keepVolumes = true
	}
	if flags.archive.url == "" {
		flags.archive.url = c.Archive
	}
	if !flags.root.metrics.IsEnabled() && c.Metrics.IsEnabled() {
		flags.root.metrics.Enabled = c.Metrics.Enabled
	}
	if flags.root.metrics.URL == "" {
		flags.root.metrics.URL = c.Metrics.URL
	}
	if flags.root.metrics.User == "" {
		flags.root.metrics.User = c.Metrics.User
	}
	if flags.root.metrics.Password == "" {
		flags.root.metrics.Password = c.Metrics.Password
	}
	if flags.root.metrics.Database == "" {
		flags.root.metrics.Database = c.Metrics.Database
	}
}

/** combined config (file + env var) and parameters (pflags) */

type cliOptionInputs struct {
	config *CLIConfig
	params *flagsT

	onceLogger sync.Once
	logger     *zap.Logger
}

func newCliOptionInputs(config *CLIConfig, params *flagsT) *cliOptionInputs {
	return &cliOptionInputs{
		config: config,
		params: params,
	}
}

func (in *cliOptionInputs) getLogger() (*zap.Logger, error) {
	var err error
	in.onceLogger.Do(func() {
		in.logger, err = logging.GetLogger(in.params.root.logLevel)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set log level: %v", err)
	}
	return in.logger, nil
}

/** combined config and parameters to internal objects */

// matrix assembles the test plan from flags and config. An invalid plan is
// reported by the consumer (runner or provider), not here.
func (in *cliOptionInputs) matrix() model.Matrix {
	flags := in.params
	m := model.Matrix{
		Branches:       make([]model.Branch, 0, len(flags.run.branches)),
		Platforms:      make([]model.Platform, 0, len(flags.run.platforms)),
		InstancePrefix: flags.naming.prefix,
		SnapshotSuffix: flags.naming.suffix,
	}
	for _, b := range flags.run.branches {
		m.Branches = append(m.Branches, model.Branch(b))
	}
	for _, p := range flags.run.platforms {
		m.Platforms = append(m.Platforms, model.Platform(p))
	}
	return m
}

// buildProvider is a package level indirection patched over during tests
var buildProvider = func(in *cliOptionInputs, logger *zap.Logger) (provider.Provider, error) {
	flags := in.params
	opts := []ectwo.Option{ectwo.Logger(logger)}
	if flags.provider.region != "" {
		opts = append(opts, ectwo.Region(flags.provider.region))
	}
	if flags.provider.profile != "" {
		opts = append(opts, ectwo.Profile(flags.provider.profile))
	}
	if flags.provider.volumeType != "" {
		opts = append(opts, ectwo.VolumeType(flags.provider.volumeType))
	}
	if flags.provider.keepVolumes {
		opts = append(opts, ectwo.KeepVolumes(true))
	}
	if flags.provider.waitTimeout > 0 {
		opts = append(opts, ectwo.WaitTimeout(flags.provider.waitTimeout))
	}
	return ectwo.New(opts...), nil
}

func (in *cliOptionInputs) driver() (driver.Driver, error) {
	flags := in.params
	if flags.driver.command == "" {
		return nil, fmt.Errorf("no test driver configured: set --driver or the 'driver' config key")
	}
	opts := []driver.Option{}
	if flags.driver.timeout > 0 {
		opts = append(opts, driver.Timeout(flags.driver.timeout))
	}
	return driver.NewExec(flags.driver.command, flags.driver.args, opts...), nil
}

// sink builds the artifact sink, or nil when archiving is disabled
func (in *cliOptionInputs) sink() (artifact.Sink, error) {
	flags := in.params
	if flags.archive.url == "" {
		return nil, nil
	}
	var s3opts []artifact.S3Option
	if flags.provider.region != "" || flags.provider.profile != "" {
		cfg := aws.NewConfig()
		if flags.provider.region != "" {
			cfg = cfg.WithRegion(flags.provider.region)
		}
		if flags.provider.profile != "" {
			cfg = cfg.WithCredentials(credentials.NewSharedCredentials("", flags.provider.profile))
		}
		s3opts = append(s3opts, artifact.S3AWSConfig(cfg))
	}
	return artifact.FromURL(flags.archive.url, s3opts...)
}
