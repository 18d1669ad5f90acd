// Copyright © 2026 Fogtools

package cmd

import (
	"context"
	"os"

	"github.com/docker/go-units"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var snapshotList = &cobra.Command{
	Use:     "list",
	Short:   "List the clean state snapshots",
	Long:    `List the completed snapshots whose name matches the clean suffix, most recent first per platform.`,
	Aliases: []string{"ls"},
	Example: `% fogtest snapshot list`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &fogtestFlags)
		logger, err := optionInputs.getLogger()
		if err != nil {
			wrapFatalln("get logger", err)
			return
		}
		p, err := buildProvider(optionInputs, logger)
		if err != nil {
			wrapFatalln("configure provider", err)
			return
		}

		m := optionInputs.matrix()
		suffix := m.SnapshotSuffix
		if suffix == "" {
			suffix = model.DefaultSnapshotSuffix
		}
		snapshots, err := p.ListSnapshots(ctx, suffix)
		if err != nil {
			wrapFatalln("list snapshots", err)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "ID", "State", "Size", "Created"})
		for _, snap := range snapshots {
			t.AppendRow(table.Row{
				snap.Name, snap.ID, snap.State,
				units.BytesSize(float64(snap.SizeGiB) * units.GiB),
				humanAge(snap.StartedAt),
			})
		}
		t.Render()
	},
}

func init() {
	addSnapshotSuffixFlag(snapshotList)
	addRegionFlag(snapshotList)
	addProfileFlag(snapshotList)

	snapshotCmd.AddCommand(snapshotList)
}
