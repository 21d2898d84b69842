package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/tui"
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a full reconciliation pass and print its report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			log := opts.logger()

			report, err := opts.client().Sync(cmd.Context())
			if err != nil {
				log.Err(err).Msg("sync failed")
				text := ""
				if report != nil {
					text = renderReport(report)
				}
				f.Failure(report, text, err)
				return reportedError(exitCodeFor(err, report != nil), err)
			}

			log.Info().Str("pass_id", report.PassID).Int("failures", len(report.Failures)).Msg("sync finished")
			return f.Success(report, renderReport(report))
		},
	}
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var (
		detach bool
		poll   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Push the whole local library to the linked account",
		Long: `Start the bulk migration in syncd and follow its progress.

Leaving the progress view (q) does not stop the migration. In json format
the command returns as soon as the migration has started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			log := opts.logger()
			client := opts.client()
			wait := !detach && opts.Format != "json"

			err := client.Migrate(cmd.Context())
			switch {
			case err == nil:
			case errors.Is(err, ErrMigrationRunning) && wait:
				fmt.Fprintln(f.errWriter(), "a migration is already running, attaching to it")
			default:
				f.Failure(nil, "", err)
				return reportedError(exitCodeFor(err, false), err)
			}

			if !wait {
				return f.Success(map[string]bool{"started": true}, "migration started")
			}

			summary, err := tui.New(client, poll, log, opts.tuiOptions...).WatchMigration(cmd.Context())
			switch {
			case errors.Is(err, tui.ErrDetached):
				return f.Success(nil, "detached, the migration keeps running in syncd")
			case err != nil:
				f.Failure(nil, "", errors.New(tui.HumanizeError(err)))
				return reportedError(ExitCommandError, err)
			}

			if err := f.Success(summary, tui.RenderSummary(summary)); err != nil {
				return err
			}
			if summary != nil && summary.Cancelled {
				return reportedError(ExitFailure, errors.New("migration cancelled"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&detach, "detach", "d", false, "start the migration and return right away")
	cmd.Flags().DurationVar(&poll, "poll", tui.DefaultPollInterval, "progress polling interval")

	return cmd
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what syncd is doing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			status, err := opts.client().Status(cmd.Context())
			if err != nil {
				f.Failure(nil, "", err)
				return reportedError(exitCodeFor(err, false), err)
			}
			return f.Success(status, renderStatus(status))
		},
	}
}

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <token|->",
		Short: "Hand an account session token to syncd",
		Long: `Hand an account session token to syncd. With "-" the token is
read from stdin, which keeps it out of the shell history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			token := args[0]
			if token == "-" {
				var err error
				if token, err = readToken(cmd.InOrStdin()); err != nil {
					return WrapExitError(ExitCommandError, "read token from stdin", err)
				}
			}
			if strings.TrimSpace(token) == "" {
				return NewExitError(ExitCommandError, "empty token, use logout to clear the session")
			}

			session, err := opts.client().Login(cmd.Context(), token)
			if err != nil {
				f.Failure(nil, "", err)
				return reportedError(exitCodeFor(err, false), err)
			}
			return f.Success(session, renderSession(*session))
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the session of syncd; syncing stops until the next login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			session, err := opts.client().Login(cmd.Context(), "")
			if err != nil {
				f.Failure(nil, "", err)
				return reportedError(exitCodeFor(err, false), err)
			}
			return f.Success(session, renderSession(*session))
		},
	}
}

// NewStateCommand creates the state command.
func NewStateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "state <collection> <id>",
		Short:   "Show whether a record is synchronized",
		Example: "  syncctl state assets 0b7c2f0e-5d1a-4e0b-9a55-3c1f8e2d9a10",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			state, err := opts.client().State(cmd.Context(), args[0], args[1])
			if err != nil {
				f.Failure(nil, "", err)
				return reportedError(ExitCommandError, err)
			}
			return f.Success(state, fmt.Sprintf("%s/%s: %s", state.Collection, state.ID, state.State))
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the versions of syncctl and syncd",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			daemon, err := opts.client().Version(cmd.Context())
			if err != nil {
				opts.logger().Warn().Err(err).Msg("daemon version unavailable")
			}

			data := map[string]any{"syncctl": opts.build.String(), "syncd": daemon}
			return opts.formatter(cmd).Success(data, tui.RenderVersion(opts.build, daemon))
		},
	}
}

// exitCodeFor maps a request failure to the exit code. A pass that ran and
// was aborted is a failure of the work, everything else a failure of the
// command.
func exitCodeFor(err error, ran bool) int {
	var apiErr *APIError
	if ran && errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusConflict {
		return ExitFailure
	}
	return ExitCommandError
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
