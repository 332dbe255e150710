package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lloyd",
		Short:         "Drive and watch a remote k-means clustering step by step",
		Long:          `An interactive controller for a remote Lloyd-style clustering service: generate data, place centroids, step or run to convergence.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		if c == rootCmd {
			printExtensions(c)
		}
	})

	if a != nil {
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		}
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default: nearest .lloyd/config.yaml)")
	cmd.PersistentFlags().String("scope", "", "Config scope (global|project)")
	cmd.PersistentFlags().String("service", "", "Clustering service base URL")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(),
		NewRunCmd(a),
		NewStepCmd(a),
		NewReplCmd(a),
	)
}
