// Copyright © 2026 Fogtools

package cmd

import (
	"context"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/fogtools/fogtest/pkg/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var instanceList = &cobra.Command{
	Use:     "list",
	Short:   "List the test bed instances",
	Long:    `List the instances whose name matches the fogtesting prefix, with their state and root volume.`,
	Aliases: []string{"ls"},
	Example: `% fogtest instance list
% fogtest instance list --instance-prefix staging-`,
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
		prefix := m.InstancePrefix
		if prefix == "" {
			prefix = model.DefaultInstancePrefix
		}
		instances, err := p.ListInstances(ctx, prefix)
		if err != nil {
			wrapFatalln("list instances", err)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "ID", "State", "Type", "Zone", "Root Volume", "Launched"})
		for _, inst := range instances {
			t.AppendRow(table.Row{
				inst.Name, inst.ID, inst.State, inst.Type, inst.Zone, inst.VolumeID,
				humanAge(inst.LaunchedAt),
			})
		}
		t.Render()
	},
}

// humanAge renders an age like "3 days ago", or "-" for an unset time
func humanAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return units.HumanDuration(time.Since(t)) + " ago"
}

func init() {
	addInstancePrefixFlag(instanceList)
	addRegionFlag(instanceList)
	addProfileFlag(instanceList)

	instanceCmd.AddCommand(instanceList)
}
