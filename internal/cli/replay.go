package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/compiler"
	"github.com/DavidAngell/padfx/internal/detour"
	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/pad"
	"github.com/DavidAngell/padfx/internal/profile"
	"github.com/DavidAngell/padfx/internal/store"
	"github.com/DavidAngell/padfx/internal/testutil"
)

// maxReportedDiffs caps the divergences listed in replay output.
const maxReportedDiffs = 10

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string
	Profile  string  // optional profile directory
	Speed    float64 // playback speed multiplier
	Name     string  // name of the new session
	Verify   bool    // fail when output diverges from the recording
}

// ReplayDiff is one tick where the replayed output differs.
type ReplayDiff struct {
	Tick    int64  `json:"tick"`
	Want    string `json:"want"`
	Got     string `json:"got"`
	Missing bool   `json:"missing,omitempty"`
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Source        string       `json:"source_session"`
	Session       string       `json:"session"`
	Profile       string       `json:"profile,omitempty"`
	ProfileHash   string       `json:"profile_hash"`
	Frames        int          `json:"frames"`
	Ticked        int64        `json:"ticked"`
	Divergent     int          `json:"divergent"`
	Deterministic bool         `json:"deterministic"`
	Diffs         []ReplayDiff `json:"diffs,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Play a session's raw input back through the engine",
		Long: `Play a recorded session's raw frames back through a fresh engine.

Frames are fed through the poll detour one call per frame, with the
engine clock set to each frame's recorded offset (divided by --speed).
The replay is stored as a new session and its output is compared with
the recorded output tick by tick.

Triggers enqueued during the original run are not part of the raw input,
so their effects show up as divergences.

Exit codes:
  0 - Replay completed (and matched, with --verify)
  1 - Output diverged from the recording (with --verify)
  2 - Command error (database not found, unknown session, etc.)

Examples:
  padfx replay --db ./padfx.db --session cq3v1k8
  padfx replay --db ./padfx.db --session cq3v1k8 --profile ./profiles/rocket --verify
  padfx replay --db ./padfx.db --session cq3v1k8 --speed 2 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PADFX_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to replay (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile directory applied during replay")
	cmd.Flags().Float64Var(&opts.Speed, "speed", 1, "playback speed multiplier")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name of the new session (default: \"<source> replay\")")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "exit 1 if the output diverges from the recording")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	logger := opts.logger()

	if opts.Speed <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("speed must be positive, got %g", opts.Speed))
	}
	dbPath, err := opts.database(opts.Database)
	if err != nil {
		return err
	}

	p := &profile.Profile{Name: "passthrough"}
	if opts.Profile != "" {
		res, errs := compiler.LoadProfile(opts.Profile, compiler.LoadModeFailFast)
		if len(errs) > 0 {
			return WrapExitError(ExitCommandError, "failed to load profile", errors.Join(errs...))
		}
		p = res.Profile
	}
	hash, err := p.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash profile", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	source, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	raw, err := st.ReadFrames(ctx, source.ID, engine.StageRaw)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read frames", err)
	}
	if len(raw) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s has no raw frames", source.ID))
	}

	name := opts.Name
	if name == "" {
		name = source.Name + " replay"
	}
	sess, err := st.CreateSession(ctx, store.Session{
		Name:        name,
		ProfileHash: hash,
		PollHz:      int(float64(source.PollHz) * opts.Speed),
		Meta: map[string]any{
			"source":    "replay",
			"replay_of": source.ID,
			"profile":   p.Name,
			"speed":     strconv.FormatFloat(opts.Speed, 'g', -1, 64),
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}

	clock := testutil.NewManualClock()
	start := clock.Now()
	rec := store.NewRecorder(st, sess.ID, clock, opts.Config.RecordBuffer, logger)

	eng := engine.New(clock,
		engine.WithRules(profile.NewSet(p, logger)),
		engine.WithMacros(p),
		engine.WithObserver(rec),
		engine.WithLogger(logger),
		engine.WithMaxSequences(opts.Config.MaxSequences),
	)

	states := make([]pad.State, len(raw))
	for i, f := range raw {
		states[i] = f.State
	}
	d := detour.New(detour.Playback(states), eng, detour.AnyIndex, logger)

	logger.Info("replaying session",
		"source", source.ID,
		"session", sess.ID,
		"frames", len(raw),
		"speed", opts.Speed,
	)
	for _, f := range raw {
		offset := time.Duration(float64(f.OffsetMicros)/opts.Speed) * time.Microsecond
		clock.Set(start.Add(offset))

		var s pad.State
		if code := d.Call(0, &s); code != detour.Success {
			break
		}
	}

	if err := rec.Close(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to write session", err)
	}

	want, err := st.ReadFrames(ctx, source.ID, engine.StageOutput)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read recorded output", err)
	}
	got, err := st.ReadFrames(ctx, sess.ID, engine.StageOutput)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read replayed output", err)
	}
	diffs := store.DiffFrames(want, got)

	result := ReplayResult{
		Source:        source.ID,
		Session:       sess.ID,
		Profile:       p.Name,
		ProfileHash:   hash,
		Frames:        len(raw),
		Ticked:        d.Stats().Ticked,
		Divergent:     len(diffs),
		Deterministic: len(diffs) == 0,
	}
	for i, diff := range diffs {
		if i == maxReportedDiffs {
			break
		}
		result.Diffs = append(result.Diffs, ReplayDiff{
			Tick:    diff.Tick,
			Want:    diff.Want.State.Gamepad.String(),
			Got:     diff.Got.State.Gamepad.String(),
			Missing: diff.Missing,
		})
	}

	return outputReplay(opts, opts.newFormatter(cmd), result)
}

func outputReplay(opts *ReplayOptions, formatter *OutputFormatter, result ReplayResult) error {
	failed := opts.Verify && !result.Deterministic
	msg := fmt.Sprintf("replay diverged on %d tick(s)", result.Divergent)

	if formatter.JSON() {
		if failed {
			if err := formatter.Failure("E_REPLAY_DIVERGED", msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Replayed %s as %s\n", result.Source, result.Session)
	fmt.Fprintf(w, "  Profile: %s\n", result.Profile)
	fmt.Fprintf(w, "  Frames:  %d (%d ticked)\n", result.Frames, result.Ticked)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Output matches the recording")
		return nil
	}

	fmt.Fprintf(w, "✗ Output diverged on %d tick(s)\n", result.Divergent)
	for _, d := range result.Diffs {
		if d.Missing {
			fmt.Fprintf(w, "  tick %d: missing\n", d.Tick)
			continue
		}
		fmt.Fprintf(w, "  tick %d:\n    want %s\n    got  %s\n", d.Tick, d.Want, d.Got)
	}
	if result.Divergent > len(result.Diffs) {
		fmt.Fprintf(w, "  ... and %d more\n", result.Divergent-len(result.Diffs))
	}

	if failed {
		return NewExitError(ExitFailure, msg)
	}
	return nil
}
