package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/4thel00z/lloyd/internal"
	"github.com/spf13/cobra"
)

// Short names accepted at the prompt.
var replAliases = map[string]string{
	"k":     internal.ActionSetK,
	"init":  internal.ActionInitialize,
	"click": internal.ActionCapture,
	"gen":   internal.ActionGenerate,
}

func NewReplCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Drive a session interactively",
		Long: `Read actions line by line and apply them to one session.

Actions: generate, k <n>, init <method>, click <px> <py>, step, run, stop, reset.
Commands: status, wait, chart [file], help, quit.`,
		Args: cobra.NoArgs,
		RunE: makeReplRunner(a),
	}

	cmd.Flags().Bool("watch", false, "Reload the config file and apply cluster count changes")
	cmd.Flags().Bool("no-generate", false, "Do not generate a dataset on start")
	cmd.Flags().Duration("debounce", 200*time.Millisecond, "Debounce window for config changes")
	return cmd
}

func makeReplRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		noGenerate, _ := cmd.Flags().GetBool("no-generate")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		s := a.newSession(a.cfg)
		defer s.Close()

		out := &syncWriter{w: cmd.OutOrStdout()}
		unsubscribe, err := s.Subscribe(ctx, func(ev internal.Event) { printEvent(out, ev) })
		if err != nil {
			return err
		}
		defer unsubscribe()

		if watch {
			go watchClusters(ctx, a, s, out, debounce)
		}

		if !noGenerate {
			if err := s.Dispatcher.Dispatch(ctx, internal.ActionGenerate); err != nil {
				return err
			}
			if err := s.Settle(ctx); err != nil {
				return err
			}
		}

		r := &repl{session: s, out: out, chart: a.cfg.Output.Chart, asJSON: asJSON}
		return r.loop(ctx, cmd.InOrStdin())
	}
}

type repl struct {
	session *internal.Session
	out     io.Writer
	chart   string
	asJSON  bool
}

func (r *repl) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		quit, err := r.handle(ctx, fields[0], fields[1:])
		if err != nil {
			fmt.Fprintln(r.out, errStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func (r *repl) handle(ctx context.Context, name string, args []string) (bool, error) {
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintf(r.out, "actions: %s\n", strings.Join(r.session.Dispatcher.Actions(), ", "))
		fmt.Fprintln(r.out, "commands: status, wait, chart [file], help, quit")
		return false, nil
	case "status":
		return false, r.status(ctx)
	case "wait":
		return false, r.session.Settle(ctx)
	case "chart":
		path := r.chart
		if len(args) > 0 {
			path = args[0]
		}
		if err := writeChartFile(path, r.session.Canvas.Scene()); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "chart written to %s\n", path)
		return false, nil
	}

	action := name
	if full, ok := replAliases[name]; ok {
		action = full
	}

	if err := r.session.Dispatcher.Dispatch(ctx, action, args...); err != nil {
		return false, err
	}

	// A run keeps going in the background so that stop and reset can
	// interrupt it.
	if action == internal.ActionRun || action == internal.ActionStop {
		return false, nil
	}
	return false, r.session.Settle(ctx)
}

func (r *repl) status(ctx context.Context) error {
	snap, err := r.session.Snapshot(ctx)
	if err != nil {
		return err
	}
	if r.asJSON {
		enc := newJSONEncoder(r.out)
		return enc.Encode(snapshotJSON(snap))
	}
	printSnapshot(r.out, snap)
	return nil
}

func watchClusters(ctx context.Context, a *app, s *internal.Session, out io.Writer, debounce time.Duration) {
	current := a.cfg.Clusters
	onChange := func(cfg *internal.Config) {
		if cfg.Clusters == current {
			return
		}
		current = cfg.Clusters
		fmt.Fprintf(out, "config changed: clusters = %d\n", cfg.Clusters)
		if err := s.Dispatcher.Dispatch(ctx, internal.ActionSetK, fmt.Sprint(cfg.Clusters)); err != nil {
			fmt.Fprintln(out, errStyle.Render(err.Error()))
		}
	}
	onError := func(err error) {
		a.logger.WithError(err).Warn("config watch")
	}

	if err := internal.WatchConfig(ctx, a.cfgPath, debounce, onChange, onError); err != nil {
		a.logger.WithError(err).Warn("config watch stopped")
	}
}
