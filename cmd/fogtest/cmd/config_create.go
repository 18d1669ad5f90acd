package cmd

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/spf13/cobra"
)

// patched over during tests
var userHomeDir = os.UserHomeDir

var configGen = &cobra.Command{
	Use:     "create",
	Short:   "Create a config",
	Long:    "Create a config to use for fogtest from the current flags. The config file will be placed in $HOME/.fogtest/fogtest.yaml",
	Example: `% fogtest config create --branch master --platform linux --platform windows --driver ./run-suite.sh --archive s3://fog-qa/runs`,
	Run: func(cmd *cobra.Command, args []string) {
		home, err := userHomeDir()
		if err != nil {
			wrapFatalln("could not get home directory for user", err)
			return
		}
		c := CLIConfig{
			Branches:    fogtestFlags.run.branches,
			Platforms:   fogtestFlags.run.platforms,
			Driver:      fogtestFlags.driver.command,
			DriverArgs:  fogtestFlags.driver.args,
			Timeout:     fogtestFlags.driver.timeout,
			Prefix:      fogtestFlags.naming.prefix,
			Suffix:      fogtestFlags.naming.suffix,
			Region:      fogtestFlags.provider.region,
			Profile:     fogtestFlags.provider.profile,
			VolumeType:  fogtestFlags.provider.volumeType,
			KeepVolumes: fogtestFlags.provider.keepVolumes,
			Archive:     fogtestFlags.archive.url,
			Concurrency: fogtestFlags.run.concurrency,
			Metrics:     fogtestFlags.root.metrics,
		}
		o, err := yaml.Marshal(c)
		if err != nil {
			wrapFatalln("serialize config to yaml", err)
			return
		}
		// the config may carry a metrics password, keep it owner-only
		if err = os.MkdirAll(filepath.Join(home, ".fogtest"), 0700); err != nil {
			wrapFatalln("create config directory", err)
			return
		}
		target := filepath.Join(home, ".fogtest", "fogtest.yaml")
		if err = os.WriteFile(target, o, 0600); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		infoLogger.Printf("config written to %s", target)
	},
}

func init() {
	addBranchesFlag(configGen)
	addPlatformsFlag(configGen)
	addDriverFlag(configGen)
	addDriverArgFlag(configGen)
	addDriverTimeoutFlag(configGen)
	addConcurrencyFlag(configGen)
	addInstancePrefixFlag(configGen)
	addSnapshotSuffixFlag(configGen)
	addRegionFlag(configGen)
	addProfileFlag(configGen)
	addVolumeTypeFlag(configGen)
	addKeepVolumesFlag(configGen)
	addArchiveFlag(configGen)

	configCmd.AddCommand(configGen)
}
