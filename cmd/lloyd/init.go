package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4thel00z/lloyd/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration",
		Long:  `Create a .lloyd directory holding a config.yaml with the default settings.`,
		RunE:  runInit,
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.lloyd)")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	isGlobal, _ := cmd.Flags().GetBool("global")

	resolver := internal.NewScopeResolver()

	var scope internal.Scope
	if isGlobal {
		scope = resolver.Global()
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		scope = internal.Scope{
			Type: internal.ScopeProject,
			Path: cwd,
			Dir:  filepath.Join(cwd, internal.ScopeDirName),
		}
	}

	if _, err := os.Stat(scope.ConfigPath()); err == nil {
		return fmt.Errorf("already initialized at %s", scope.Dir)
	}

	if err := internal.SaveConfig(scope.ConfigPath(), internal.DefaultConfig()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", scope.ConfigPath())
	return nil
}
