package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/4thel00z/lloyd/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// syncWriter serializes writes coming from the event loop and the input
// reader.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func formatPoints(points []internal.Point) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("(%.4f, %.4f)", p[0], p[1]))
	}
	return strings.Join(parts, " ")
}

func printSnapshot(w io.Writer, snap internal.Snapshot) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("phase %s", snap.Phase)))
	fmt.Fprintf(w, "clusters:  %d\n", snap.K)
	if snap.Mode != internal.ModeNone {
		armed := ""
		if snap.Armed {
			armed = " (capture armed)"
		}
		fmt.Fprintf(w, "mode:      %s%s\n", snap.Mode, armed)
	}
	fmt.Fprintf(w, "points:    %d\n", len(snap.Points))
	fmt.Fprintf(w, "assigned:  %d\n", len(snap.Index))
	fmt.Fprintf(w, "centroids: %d %s\n", len(snap.Centroids), dimStyle.Render(formatPoints(snap.Centroids)))
	if snap.Run != nil {
		fmt.Fprintf(w, "last run:  %s after %d iteration(s)\n", outcomeText(snap.Run.Outcome), snap.Run.Iterations)
	}
	if snap.LastError != nil {
		fmt.Fprintf(w, "error:     %s\n", errStyle.Render(snap.LastError.Error()))
	}
}

func outcomeText(o internal.RunOutcome) string {
	switch o {
	case internal.OutcomeConverged:
		return okStyle.Render(string(o))
	case internal.OutcomeFailed:
		return errStyle.Render(string(o))
	default:
		return warnStyle.Render(string(o))
	}
}

func printEvent(w io.Writer, ev internal.Event) {
	switch ev.Kind {
	case internal.EventApplied:
		switch {
		case ev.RunID != 0:
			fmt.Fprintf(w, "%s #%d applied (run %d, iteration %d)\n", ev.Op, ev.Seq, ev.RunID, ev.Iterations)
		case ev.Seq != 0:
			fmt.Fprintf(w, "%s #%d applied\n", ev.Op, ev.Seq)
		default:
			fmt.Fprintf(w, "%s applied\n", ev.Op)
		}
	case internal.EventArmed:
		fmt.Fprintln(w, okStyle.Render("manual capture armed"))
	case internal.EventDiscarded:
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s #%d discarded (stale)", ev.Op, ev.Seq)))
	case internal.EventFailed:
		fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("%s #%d failed: %v", ev.Op, ev.Seq, ev.Err)))
	case internal.EventRunFinished:
		fmt.Fprintf(w, "run %d %s after %d iteration(s)\n", ev.RunID, outcomeText(ev.Outcome), ev.Iterations)
	}
}

func snapshotJSON(snap internal.Snapshot) map[string]any {
	data := map[string]any{
		"clusters":   snap.K,
		"mode":       snap.Mode,
		"armed":      snap.Armed,
		"phase":      snap.Phase,
		"points":     len(snap.Points),
		"centroids":  snap.Centroids,
		"assignment": snap.Index,
	}
	if snap.Run != nil {
		run := map[string]any{
			"outcome":    snap.Run.Outcome,
			"iterations": snap.Run.Iterations,
		}
		if snap.Run.Err != nil {
			run["error"] = snap.Run.Err.Error()
		}
		data["run"] = run
	}
	if snap.LastError != nil {
		data["error"] = snap.LastError.Error()
	}
	return data
}

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

func outputJSON(cmd *cobra.Command, v any) error {
	return newJSONEncoder(cmd.OutOrStdout()).Encode(v)
}

func writeChartFile(path string, scene internal.Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := internal.WriteChart(f, scene, "k-means clustering"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
