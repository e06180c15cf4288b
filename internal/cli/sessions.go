package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/engine"
	"github.com/DavidAngell/padfx/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
	Delete   string // session to delete instead of listing
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ProfileHash string         `json:"profile_hash"`
	PollHz      int            `json:"poll_hz"`
	Frames      int            `json:"frames"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or delete recorded sessions",
		Long: `List the sessions stored in a database, oldest first, with the number
of output frames recorded for each. With --delete, remove one session and
everything recorded under it.

Examples:
  padfx sessions --db ./padfx.db
  padfx sessions --db ./padfx.db --format json
  padfx sessions --db ./padfx.db --delete cq3v1k8`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $PADFX_DB)")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "delete the session with this ID")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.newFormatter(cmd)

	dbPath, err := opts.database(opts.Database)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Delete != "" {
		if _, err := st.ReadSession(ctx, opts.Delete); errors.Is(err, store.ErrSessionNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Delete))
		} else if err != nil {
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
		if err := st.DeleteSession(ctx, opts.Delete); err != nil {
			return WrapExitError(ExitCommandError, "failed to delete session", err)
		}
		opts.logger().Info("deleted session", "session", opts.Delete)

		if formatter.JSON() {
			return formatter.Success(map[string]any{"deleted": opts.Delete})
		}
		fmt.Fprintf(formatter.Writer, "✓ Deleted session %s\n", opts.Delete)
		return nil
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		n, err := st.CountFrames(ctx, s.ID, engine.StageOutput)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count frames", err)
		}
		summaries = append(summaries, SessionSummary{
			ID:          s.ID,
			Name:        s.Name,
			ProfileHash: s.ProfileHash,
			PollHz:      s.PollHz,
			Frames:      n,
			Meta:        s.Meta,
		})
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tHZ\tFRAMES\tPROFILE")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Name, s.PollHz, s.Frames, shortHash(s.ProfileHash))
	}
	return tw.Flush()
}

// shortHash trims a profile hash for table output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
