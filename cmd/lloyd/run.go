package main

import (
	"errors"
	"fmt"

	"github.com/4thel00z/lloyd/internal"
	"github.com/spf13/cobra"
)

var errManualNeedsRepl = errors.New("manual initialization needs pointer input, use the repl")

func NewRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate, initialize and run to convergence",
		Long:  `Generate a dataset, initialize centroids with the chosen method and step until the centroids stop moving or the iteration bound is reached.`,
		Args:  cobra.NoArgs,
		RunE:  makeRunRunner(a),
	}

	addSessionFlags(cmd)
	cmd.Flags().Int("max-iterations", 0, "Stop after this many steps, 0 for no bound (default: run.max_iterations from the config)")
	cmd.Flags().Float64("tolerance", 0, "Converge once every coordinate changes by less than this, absolutely or relatively (default: run.tolerance from the config, 0 for exact equality)")
	cmd.Flags().Duration("delay", 0, "Pause between steps (default: run.delay from the config)")
	cmd.Flags().String("chart", "", "Write an HTML chart of the final state to this file")
	return cmd
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("method", "m", "", "Initialization method (random|farthest|kmeans++)")
	cmd.Flags().IntP("clusters", "k", 0, "Number of clusters")
}

// sessionConfig copies the loaded config and applies the command's flags.
func sessionConfig(cmd *cobra.Command, base *internal.Config) (*internal.Config, error) {
	cfg := *base
	flags := cmd.Flags()

	if flags.Changed("method") {
		cfg.InitMethod, _ = flags.GetString("method")
	}
	if flags.Changed("clusters") {
		cfg.Clusters, _ = flags.GetInt("clusters")
	}
	if flags.Lookup("max-iterations") != nil && flags.Changed("max-iterations") {
		cfg.Run.MaxIterations, _ = flags.GetInt("max-iterations")
	}
	if flags.Lookup("tolerance") != nil && flags.Changed("tolerance") {
		cfg.Run.Tolerance, _ = flags.GetFloat64("tolerance")
	}
	if flags.Lookup("delay") != nil && flags.Changed("delay") {
		cfg.Run.Delay, _ = flags.GetDuration("delay")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// prepare generates a dataset and places the initial centroids.
func prepare(cmd *cobra.Command, s *internal.Session, method string) error {
	if method == internal.MethodManual {
		return errManualNeedsRepl
	}
	if _, err := dispatchAndSettle(cmd, s, internal.ActionGenerate); err != nil {
		return err
	}
	if _, err := dispatchAndSettle(cmd, s, internal.ActionInitialize, method); err != nil {
		return err
	}
	return nil
}

func makeRunRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := sessionConfig(cmd, a.cfg)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		chart, _ := cmd.Flags().GetString("chart")

		s := a.newSession(cfg)
		defer s.Close()

		if err := prepare(cmd, s, cfg.InitMethod); err != nil {
			return err
		}

		snap, err := dispatchAndSettle(cmd, s, internal.ActionRun)
		if err != nil {
			return err
		}

		if chart != "" {
			if err := writeChartFile(chart, s.Canvas.Scene()); err != nil {
				return err
			}
		}

		if asJSON {
			return outputJSON(cmd, snapshotJSON(snap))
		}

		printSnapshot(cmd.OutOrStdout(), snap)
		if chart != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "chart written to %s\n", chart)
		}
		return nil
	}
}
