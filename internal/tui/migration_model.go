package tui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const maxBarWidth = 60

// migrationModel polls the daemon status and draws the progress of the
// running bulk migration. It quits once the daemon reports no migration.
type migrationModel struct {
	ctx    context.Context
	source StatusSource
	poll   time.Duration

	spinner spinner.Model
	bar     progress.Model

	current  *models.Progress
	summary  *models.MigrationSummary
	err      error
	detached bool
	done     bool
}

func newMigrationModel(ctx context.Context, source StatusSource, poll time.Duration) migrationModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	return migrationModel{
		ctx:     ctx,
		source:  source,
		poll:    poll,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
	}
}

func (m migrationModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(0))
}

// fetch reads the status after delay.
func (m migrationModel) fetch(delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-m.ctx.Done():
				return statusMsg{err: m.ctx.Err()}
			}
		}
		status, err := m.source.Status(m.ctx)
		return statusMsg{status: status, err: err}
	}
}

func (m migrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.quit) {
			m.detached = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(maxBarWidth, max(10, msg.Width-8))
		return m, nil

	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if !msg.status.Migrating {
			m.done = true
			m.summary = msg.status.LastMigration
			return m, tea.Quit
		}

		m.current = msg.status.Progress
		return m, tea.Batch(m.bar.SetPercent(percent(m.current)), m.fetch(m.poll))

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m migrationModel) View() string {
	switch {
	case m.err != nil:
		return renderPage("Bulk migration", errorStyle.Render(HumanizeError(m.err)), "")
	case m.done:
		return renderPage("Bulk migration", RenderSummary(m.summary), "")
	case m.current == nil:
		return renderPage("Bulk migration", m.spinner.View()+" waiting for the first record...", "q: detach (migration keeps running)")
	}

	step := slices.Index(models.SyncOrder, m.current.Collection) + 1
	body := fmt.Sprintf("%s %s  %d/%d\n\n%s\n\ncollection %d of %d",
		m.spinner.View(),
		m.current.Collection,
		m.current.Processed,
		m.current.Total,
		m.bar.View(),
		step,
		len(models.SyncOrder),
	)
	return renderPage("Bulk migration", body, "q: detach (migration keeps running)")
}

func percent(p *models.Progress) float64 {
	if p == nil || p.Total <= 0 {
		return 0
	}
	return float64(p.Processed) / float64(p.Total)
}
