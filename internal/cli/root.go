// Package cli implements syncctl, the command line client of the sync
// daemon's control API.
package cli

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/internal/utils"
	"github.com/MKhiriev/go-studio-sync/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// DefaultAddr is the control API of a daemon started with default settings.
const DefaultAddr = "http://localhost:7420"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Addr    string
	Format  string // "json" | "text"
	Timeout time.Duration
	Verbose bool
	LogFile string

	build      models.AppBuildInfo
	tuiOptions []tea.ProgramOption
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of syncctl.
func NewRootCommand(build models.AppBuildInfo) *cobra.Command {
	return newRootCommand(build)
}

func newRootCommand(build models.AppBuildInfo, tuiOptions ...tea.ProgramOption) *cobra.Command {
	opts := &RootOptions{build: build, tuiOptions: tuiOptions}

	cmd := &cobra.Command{
		Use:   "syncctl",
		Short: "Control a running sync daemon",
		Long: `syncctl talks to the control API of syncd: it triggers a full
reconciliation pass, starts the bulk migration of the local library and
manages the account session the daemon syncs with.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	addr := os.Getenv("SYNCCTL_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}

	cmd.PersistentFlags().StringVarP(&opts.Addr, "addr", "a", addr, "control API address of syncd (env SYNCCTL_ADDR)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "log file used in verbose mode (default syncctl.log next to the binary)")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

func (o *RootOptions) client() *Client {
	return NewClient(utils.NewHTTPClient(
		utils.WithBaseURL(o.Addr),
		utils.WithTimeout(o.Timeout),
	))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger writes diagnostics to the log file in verbose mode only; the
// terminal belongs to the command output.
func (o *RootOptions) logger() *logger.Logger {
	if !o.Verbose {
		return logger.Nop()
	}
	return logger.NewFileLogger("syncctl", o.LogFile)
}
