package cmd

import (
	"github.com/spf13/cobra"
)

// snapshotCmd represents the clean snapshot related commands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Commands to inspect the clean state snapshots",
	Long:  `Commands to inspect the clean state snapshots instances are restored from.`,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
