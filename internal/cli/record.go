package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/harness"
	"github.com/DavidAngell/padfx/internal/store"
	"github.com/DavidAngell/padfx/internal/testutil"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
	Name     string
}

// RecordResult describes the recorded session.
type RecordResult struct {
	SessionID string   `json:"session_id"`
	Name      string   `json:"name"`
	Scenario  string   `json:"scenario"`
	Pass      bool     `json:"pass"`
	Ticks     int      `json:"ticks"`
	Written   int64    `json:"written"`
	Dropped   int64    `json:"dropped"`
	Errors    []string `json:"errors,omitempty"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <scenario.yaml>",
		Short: "Run a scenario and store it as a session",
		Long: `Run a scenario through the engine and persist every raw and output
frame, plus the sequence lifecycle, as a new session.

The session can then be inspected with trace and played back with replay.
A scenario whose assertions fail is still recorded, and the command exits 1.

Examples:
  padfx record --db ./padfx.db --name warmup ./scenarios/pulse_train.yaml
  PADFX_DB=./padfx.db padfx record ./scenarios/pulse_train.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PADFX_DB)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "session name (default: scenario name)")

	return cmd
}

func runRecord(opts *RecordOptions, scenarioFile string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	logger := opts.logger()

	dbPath, err := opts.database(opts.Database)
	if err != nil {
		return err
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	p, err := harness.BuildProfile(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load profile", err)
	}
	hash, err := p.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash profile", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	name := opts.Name
	if name == "" {
		name = scenario.Name
	}
	sess, err := st.CreateSession(ctx, store.Session{
		Name:        name,
		ProfileHash: hash,
		PollHz:      scenario.PollRate(opts.Config.PollHz),
		Meta: map[string]any{
			"source":      "scenario",
			"scenario":    scenario.Name,
			"profile":     p.Name,
			"duration_ms": scenario.DurationMs,
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create session", err)
	}
	logger.Info("recording session",
		"session", sess.ID,
		"name", name,
		"profile", p.Name,
		"profile_hash", hash,
	)

	clock := testutil.NewManualClock()
	rec := store.NewRecorder(st, sess.ID, clock, opts.Config.RecordBuffer, logger)

	result, runErr := harness.Run(scenario,
		harness.WithClock(clock),
		harness.WithObserver(rec),
		harness.WithLogger(logger),
		harness.WithDefaultPollHz(opts.Config.PollHz),
		harness.WithMaxSequences(opts.Config.MaxSequences),
	)

	// Flush before reporting, even when the run failed
	if err := rec.Close(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to write session", err)
	}
	if runErr != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", runErr)
	}

	out := RecordResult{
		SessionID: sess.ID,
		Name:      name,
		Scenario:  scenario.Name,
		Pass:      result.Pass,
		Ticks:     len(result.Ticks),
		Written:   rec.Written(),
		Dropped:   rec.Dropped(),
		Errors:    result.Errors,
	}
	if out.Dropped > 0 {
		logger.Warn("recorder dropped records", "session", sess.ID, "dropped", out.Dropped)
	}

	return outputRecord(opts.newFormatter(cmd), out)
}

func outputRecord(formatter *OutputFormatter, out RecordResult) error {
	if formatter.JSON() {
		if !out.Pass {
			msg := "scenario assertions failed"
			if err := formatter.Failure("E_SCENARIO_FAILED", msg, out); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(out)
	}

	w := formatter.Writer
	mark := "✓"
	if !out.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s Recorded session %s (%s)\n", mark, out.SessionID, out.Name)
	fmt.Fprintf(w, "  Ticks:   %d\n", out.Ticks)
	fmt.Fprintf(w, "  Written: %d records\n", out.Written)
	if out.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped: %d records\n", out.Dropped)
	}
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, "scenario assertions failed")
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
