// Copyright © 2026 Fogtools

package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// matrixCmd prints the effective test plan without touching the provider
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the configured test matrix and derived resource names",
	Long: `Show the configured test matrix and derived resource names.

The matrix comes from flags and the config file. Nothing is resolved against
the provider: use 'fogtest run --dry-run' for that.`,
	Example: `% fogtest matrix --branch master --platform linux --platform windows`,
	Run: func(cmd *cobra.Command, args []string) {
		m := newCliOptionInputs(config, &fogtestFlags).matrix()
		if err := m.Validate(); err != nil {
			wrapFatalln("invalid test matrix", err)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Platform", "Instance", "Snapshot"})
		for _, platform := range m.Platforms {
			t.AppendRow(table.Row{
				string(platform),
				m.InstanceName(platform),
				m.SnapshotName(platform),
			})
		}
		t.Render()

		for _, branch := range m.Branches {
			infoLogger.Printf("branch: %s", branch)
		}
		infoLogger.Printf("%d cells per run", m.Cells())
	},
}

func init() {
	addBranchesFlag(matrixCmd)
	addPlatformsFlag(matrixCmd)
	addInstancePrefixFlag(matrixCmd)
	addSnapshotSuffixFlag(matrixCmd)

	rootCmd.AddCommand(matrixCmd)
}
