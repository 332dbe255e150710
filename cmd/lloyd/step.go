package main

import (
	"fmt"

	"github.com/4thel00z/lloyd/internal"
	"github.com/spf13/cobra"
)

func NewStepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Generate, initialize and perform single steps",
		Long:  `Generate a dataset, initialize centroids and perform a fixed number of single refinement steps, printing the centroids after each one.`,
		Args:  cobra.NoArgs,
		RunE:  makeStepRunner(a),
	}

	addSessionFlags(cmd)
	cmd.Flags().IntP("count", "n", 1, "Number of steps")
	return cmd
}

func makeStepRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := sessionConfig(cmd, a.cfg)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return fmt.Errorf("count must be at least 1")
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		s := a.newSession(cfg)
		defer s.Close()

		if err := prepare(cmd, s, cfg.InitMethod); err != nil {
			return err
		}

		steps := make([][]internal.Point, 0, count)
		var snap internal.Snapshot
		for i := 1; i <= count; i++ {
			snap, err = dispatchAndSettle(cmd, s, internal.ActionStep)
			if err != nil {
				return err
			}
			steps = append(steps, snap.Centroids)
			if !asJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "step %d: %s\n", i, formatPoints(snap.Centroids))
			}
		}

		if asJSON {
			data := snapshotJSON(snap)
			data["steps"] = steps
			return outputJSON(cmd, data)
		}
		return nil
	}
}
