// Copyright © 2026 Fogtools

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/fogtools/fogtest/internal"
	"github.com/spf13/viper"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fogtest",
	Short: "Fogtest drives FOG test suites across a branch and platform matrix",
	Long: `Fogtest drives FOG test suites across a matrix of branches and platforms.

Each platform owns a dedicated cloud instance and a snapshot of its clean
state. For every branch, fogtest restores each platform's instance from that
snapshot and launches the test driver against it, platforms in parallel,
branches one after another.

`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if fogtestFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				log.Fatal(err)
			}
			_ = pprof.StartCPUProfile(f)
		}
		if fogtestFlags.root.memProf {
			_ = internal.MemPoll(internal.MemPollParams{})
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if fogtestFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevel(rootCmd)
	addCPUProfFlag(rootCmd)
	addMemProfFlag(rootCmd)
	addMetricsFlag(rootCmd)
	addMetricsURLFlag(rootCmd)
	addMetricsUserFlag(rootCmd)
	addMetricsPasswordFlag(rootCmd)
	addMetricsDatabaseFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if os.Getenv("FOGTEST_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("FOGTEST_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.fogtest")
		viper.AddConfigPath("/etc/fogtest")
		viper.SetConfigName("fogtest")
	}

	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
	fogtestFlags.setDefaultsFromConfig(config)
}
