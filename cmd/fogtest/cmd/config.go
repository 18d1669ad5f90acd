package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Branches    []string      `json:"branches,omitempty" yaml:"branches,omitempty"`       // Branches tested by every run
	Platforms   []string      `json:"platforms,omitempty" yaml:"platforms,omitempty"`     // Platforms tested for every branch
	Driver      string        `json:"driver,omitempty" yaml:"driver,omitempty"`           // Test driver command
	DriverArgs  []string      `json:"driverargs,omitempty" yaml:"driverargs,omitempty"`   // Fixed arguments passed to the driver
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // Per driver invocation timeout
	Prefix      string        `json:"prefix,omitempty" yaml:"prefix,omitempty"`           // Instance name prefix
	Suffix      string        `json:"suffix,omitempty" yaml:"suffix,omitempty"`           // Snapshot name suffix
	Region      string        `json:"region,omitempty" yaml:"region,omitempty"`           // AWS region of the test bed
	Profile     string        `json:"profile,omitempty" yaml:"profile,omitempty"`         // Named AWS profile holding the credentials
	VolumeType  string        `json:"volumetype,omitempty" yaml:"volumetype,omitempty"`   // Root volume type used by restores
	KeepVolumes bool          `json:"keepvolumes,omitempty" yaml:"keepvolumes,omitempty"` // Keep detached volumes around after restore
	Archive     string        `json:"archive,omitempty" yaml:"archive,omitempty"`         // Artifact location: a directory or s3://bucket[/prefix]
	Concurrency int           `json:"concurrency,omitempty" yaml:"concurrency,omitempty"` // Cap on concurrent driver runs per branch
	Metrics     metricsFlags  `json:"metrics,omitempty" yaml:"metrics,omitempty"`         // Metrics collection settings
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the fogtest config file",
	Long: `Commands to manage the fogtest CLI config.

The config file holds the set of flags that do not change across runs: the
test matrix, the driver command, the test bed naming conventions and the
archive and metrics backends. Flags override config file values.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
