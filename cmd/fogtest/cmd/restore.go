// Copyright © 2026 Fogtools

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fogtools/fogtest/pkg/model"
	"github.com/spf13/cobra"
)

// restoreCmd restores a single platform's instance outside of any run
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a platform's instance to its clean snapshot",
	Long: `Restore a platform's instance to its clean snapshot.

This is the same stop, swap root volume, start sequence a run performs
before launching the test driver, exposed for manual repairs of the test
bed.`,
	Example: `% fogtest restore --platform windows`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

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
		platform := model.Platform(fogtestFlags.restore.platform)

		inst, err := p.FindInstance(ctx, m.InstanceName(platform))
		if err != nil {
			wrapFatalln("find instance", err)
			return
		}
		snap, err := p.FindSnapshot(ctx, m.SnapshotName(platform))
		if err != nil {
			wrapFatalln("find snapshot", err)
			return
		}

		t0 := time.Now()
		if err = p.Restore(ctx, snap, inst); err != nil {
			wrapFatalln("restore instance", err)
			return
		}
		infoLogger.Printf("instance %s restored from %s in %v",
			inst.ID, snap.ID, time.Since(t0).Round(time.Second))
	},
}

func init() {
	requiredFlags := []string{addPlatformFlag(restoreCmd)}

	addInstancePrefixFlag(restoreCmd)
	addSnapshotSuffixFlag(restoreCmd)
	addRegionFlag(restoreCmd)
	addProfileFlag(restoreCmd)
	addVolumeTypeFlag(restoreCmd)
	addKeepVolumesFlag(restoreCmd)
	addWaitTimeoutFlag(restoreCmd)

	for _, flag := range requiredFlags {
		err := restoreCmd.MarkFlagRequired(flag)
		if err != nil {
			logFatalln(err)
		}
	}

	rootCmd.AddCommand(restoreCmd)
}
