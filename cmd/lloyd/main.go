package main

import (
	"context"
	"fmt"
	"os"

	"github.com/4thel00z/lloyd/internal"
	"github.com/charmbracelet/fang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	rootCmd := NewRootCmd(version, newApp())
	ran, err := dispatchExtension(ctx, rootCmd, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if ran {
		return
	}

	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

type app struct {
	resolver *internal.ScopeResolver
	cfg      *internal.Config
	cfgPath  string
	logger   *logrus.Logger
}

func newApp() *app {
	return &app{
		resolver: internal.NewScopeResolver(),
	}
}

// load resolves and reads the config, then applies the persistent flag
// overrides.
func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		scopeHint, _ := cmd.Flags().GetString("scope")
		path = a.resolver.Resolve(scopeHint).ConfigPath()
	}

	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return err
	}

	if url, _ := cmd.Flags().GetString("service"); url != "" {
		cfg.Service.URL = url
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger, err := internal.NewLogger(cfg.Log.Level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.cfgPath = path
	a.logger = logger
	return nil
}

func (a *app) newSession(cfg *internal.Config) *internal.Session {
	svc := internal.NewHTTPService(cfg.Service.URL, cfg.Service.Timeout)
	return internal.NewSession(cfg, svc, a.logger)
}

// settle waits for outstanding work and turns a recorded failure into an
// error.
func settle(cmd *cobra.Command, s *internal.Session) (internal.Snapshot, error) {
	if err := s.Settle(cmd.Context()); err != nil {
		return internal.Snapshot{}, err
	}
	snap, err := s.Snapshot(cmd.Context())
	if err != nil {
		return internal.Snapshot{}, err
	}
	if snap.LastError != nil {
		return snap, snap.LastError
	}
	return snap, nil
}

func dispatchAndSettle(cmd *cobra.Command, s *internal.Session, action string, args ...string) (internal.Snapshot, error) {
	if err := s.Dispatcher.Dispatch(cmd.Context(), action, args...); err != nil {
		return internal.Snapshot{}, err
	}
	snap, err := settle(cmd, s)
	if err != nil {
		return snap, fmt.Errorf("%s: %w", action, err)
	}
	return snap, nil
}
