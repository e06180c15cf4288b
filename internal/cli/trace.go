package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Macro    string // optional - filter events to one macro
	All      bool   // include frames that did not change
}

// TraceEvent is a single line of the session timeline.
type TraceEvent struct {
	Tick       int64        `json:"tick"`
	OffsetMs   int64        `json:"offset_ms"`
	Type       string       `json:"type"` // "frame", "started" or "finished"
	SequenceID string       `json:"sequence_id,omitempty"`
	Macro      string       `json:"macro,omitempty"`
	Buttons    string       `json:"buttons,omitempty"`
	Gamepad    *pad.Gamepad `json:"gamepad,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string         `json:"session"`
	Name     string         `json:"name"`
	PollHz   int            `json:"poll_hz"`
	Meta     map[string]any `json:"meta,omitempty"`
	Timeline []TraceEvent   `json:"timeline"`
	Stats    TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for the session.
type TraceStats struct {
	Ticks    int      `json:"ticks"`
	Started  int      `json:"started"`
	Finished int      `json:"finished"`
	Open     []string `json:"open,omitempty"` // sequences started but never finished
	Macros   []string `json:"macros,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the timeline of a recorded session",
		Long: `Show a recorded session as a tick-ordered timeline.

Output frames are merged with sequence starts and finishes. Within a tick,
starts come first, then the frame, then finishes. By default only frames
whose gamepad state changed are shown.

Examples:
  padfx trace --db ./padfx.db --session cq3v1k8
  padfx trace --db ./padfx.db --session cq3v1k8 --macro rumble_pulse
  padfx trace --db ./padfx.db --session cq3v1k8 --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PADFX_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Macro, "macro", "", "only show sequence events for this macro")
	cmd.Flags().BoolVar(&opts.All, "all", false, "show every frame, not only changes")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	dbPath, err := opts.database(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sess, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	entries, err := st.Timeline(ctx, sess.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read timeline", err)
	}

	result := TraceResult{
		Session:  sess.ID,
		Name:     sess.Name,
		PollHz:   sess.PollHz,
		Meta:     sess.Meta,
		Timeline: buildTimeline(entries, opts.Macro, opts.All),
		Stats:    buildStats(entries),
	}

	formatter := opts.newFormatter(cmd)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTimeline converts timeline entries to trace events. Frames are
// kept only when their gamepad differs from the previous frame unless all
// is set. When macro is set, only that macro's sequence events are kept.
func buildTimeline(entries []store.TimelineEntry, macro string, all bool) []TraceEvent {
	timeline := []TraceEvent{}

	offsets := make(map[int64]int64)
	for _, e := range entries {
		if e.Frame != nil {
			offsets[e.Tick] = e.Frame.OffsetMicros / 1000
		}
	}

	var (
		prev    pad.Gamepad
		started bool
	)
	for _, e := range entries {
		switch {
		case e.Frame != nil:
			g := e.Frame.State.Gamepad
			if !all && started && g == prev {
				continue
			}
			prev, started = g, true
			timeline = append(timeline, TraceEvent{
				Tick:     e.Tick,
				OffsetMs: offsets[e.Tick],
				Type:     "frame",
				Buttons:  pad.FormatButtons(g.Buttons),
				Gamepad:  &g,
			})

		case e.Event != nil:
			if macro != "" && e.Event.Macro != macro {
				continue
			}
			timeline = append(timeline, TraceEvent{
				Tick:       e.Tick,
				OffsetMs:   offsets[e.Tick],
				Type:       string(e.Event.Kind),
				SequenceID: e.Event.SequenceID,
				Macro:      e.Event.Macro,
			})
		}
	}

	return timeline
}

// buildStats counts ticks and sequence events over the whole session.
func buildStats(entries []store.TimelineEntry) TraceStats {
	var stats TraceStats

	open := make(map[string]bool)
	macros := make(map[string]bool)
	for _, e := range entries {
		if e.Frame != nil {
			stats.Ticks++
			continue
		}
		macros[e.Event.Macro] = true
		switch e.Event.Kind {
		case store.EventStarted:
			stats.Started++
			open[e.Event.SequenceID] = true
		case store.EventFinished:
			stats.Finished++
			delete(open, e.Event.SequenceID)
		}
	}

	stats.Open = sortedKeys(open)
	stats.Macros = sortedKeys(macros)
	return stats
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Session: %s (%s)\n", result.Session, result.Name)
	fmt.Fprintf(w, "Poll rate: %d Hz\n", result.PollHz)
	if verbose && len(result.Meta) > 0 {
		fmt.Fprintf(w, "Meta: %s\n", formatMeta(result.Meta))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, event := range result.Timeline {
		formatTimelineEvent(w, event, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Ticks:    %d\n", result.Stats.Ticks)
	fmt.Fprintf(w, "  Started:  %d\n", result.Stats.Started)
	fmt.Fprintf(w, "  Finished: %d\n", result.Stats.Finished)
	if len(result.Stats.Macros) > 0 {
		fmt.Fprintf(w, "  Macros:   %s\n", strings.Join(result.Stats.Macros, ", "))
	}
	if len(result.Stats.Open) > 0 {
		fmt.Fprintf(w, "  Open:     %s\n", strings.Join(result.Stats.Open, ", "))
	}

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	switch event.Type {
	case "frame":
		if verbose {
			fmt.Fprintf(w, "  [%d] %6dms %s\n", event.Tick, event.OffsetMs, event.Gamepad)
			return
		}
		fmt.Fprintf(w, "  [%d] %6dms %s\n", event.Tick, event.OffsetMs, event.Buttons)
	default:
		fmt.Fprintf(w, "  [%d] %6dms %s %s (%s)\n",
			event.Tick, event.OffsetMs, strings.ToUpper(event.Type), event.Macro, event.SequenceID)
	}
}

// formatMeta formats session metadata with sorted keys.
func formatMeta(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
