package cmd

import (
	"github.com/spf13/cobra"
)

// instanceCmd represents the test instance related commands
var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Commands to inspect the test bed instances",
	Long:  `Commands to inspect the dedicated test instances as the provider resolves them.`,
}

func init() {
	rootCmd.AddCommand(instanceCmd)
}
