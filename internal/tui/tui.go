// Package tui renders the live views of syncctl.
package tui

import (
	"context"
	"time"

	"github.com/MKhiriev/go-studio-sync/internal/logger"
	"github.com/MKhiriev/go-studio-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultPollInterval is how often the progress view reads the status.
const DefaultPollInterval = 250 * time.Millisecond

// StatusSource reads the daemon status.
type StatusSource interface {
	Status(ctx context.Context) (*models.Status, error)
}

type TUI struct {
	source StatusSource
	poll   time.Duration
	opts   []tea.ProgramOption

	logger *logger.Logger
}

// New returns a TUI reading from source every poll. opts are passed to
// every bubbletea program it starts.
func New(source StatusSource, poll time.Duration, logger *logger.Logger, opts ...tea.ProgramOption) *TUI {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &TUI{source: source, poll: poll, opts: opts, logger: logger}
}

// WatchMigration draws a progress bar until the daemon reports the bulk
// migration finished and returns its summary. Leaving early returns
// [ErrDetached].
func (t *TUI) WatchMigration(ctx context.Context) (*models.MigrationSummary, error) {
	finalModel, err := tea.NewProgram(newMigrationModel(ctx, t.source, t.poll), t.opts...).Run()
	if err != nil {
		return nil, err
	}

	result, ok := finalModel.(migrationModel)
	if !ok {
		return nil, tea.ErrProgramKilled
	}

	switch {
	case result.err != nil:
		t.logger.Debug().Err(result.err).Msg("status polling failed")
		return nil, result.err
	case result.detached:
		return nil, ErrDetached
	}
	return result.summary, nil
}
