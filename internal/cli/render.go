package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-studio-sync/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func renderReport(r *models.SyncReport) string {
	var b strings.Builder

	state := "finished"
	if r.Cancelled {
		state = "cancelled"
	}
	fmt.Fprintf(&b, "Pass %s %s in %s", r.PassID, state, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if r.Trigger != "" {
		fmt.Fprintf(&b, " (%s)", r.Trigger)
	}
	b.WriteString("\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("collection", "local only", "remote only", "pushed", "pulled", "tombstoned", "skipped", "failed")
	for _, c := range r.Collections {
		t.Row(
			c.Collection.String(),
			strconv.Itoa(c.LocalOnly),
			strconv.Itoa(c.RemoteOnly),
			strconv.Itoa(c.Pushed),
			strconv.Itoa(c.Pulled),
			strconv.Itoa(c.Tombstoned),
			strconv.Itoa(c.Skipped),
			strconv.Itoa(c.Failed),
		)
	}
	b.WriteString(t.Render())

	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n%s %s/%s [%s] %s", f.Direction, f.Collection, f.ID, f.Kind, f.Message)
	}

	return b.String()
}

func renderStatus(s *models.Status) string {
	var b strings.Builder

	state := "idle"
	switch {
	case s.Migrating:
		state = "migrating"
	case s.Syncing:
		state = "syncing"
	}
	fmt.Fprintf(&b, "State:      %s\n", state)
	if s.Progress != nil {
		fmt.Fprintf(&b, "Progress:   %s %d/%d\n", s.Progress.Collection, s.Progress.Processed, s.Progress.Total)
	}
	fmt.Fprintf(&b, "Session:    %s\n", renderSession(s.Session))
	fmt.Fprintf(&b, "Tombstones: %d", s.Tombstones)

	if r := s.LastReport; r != nil {
		fmt.Fprintf(&b, "\nLast pass:  %s at %s, %d failed", r.PassID, r.FinishedAt.Format(time.RFC3339), len(r.Failures))
	}
	if m := s.LastMigration; m != nil {
		fmt.Fprintf(&b, "\nLast migration: %d/%d uploaded at %s", m.Uploaded, m.Total, m.FinishedAt.Format(time.RFC3339))
	}

	return b.String()
}

func renderSession(s models.SessionStatus) string {
	switch {
	case s.Owner == "":
		return "logged out"
	case !s.Valid:
		return fmt.Sprintf("expired (%s)", s.Owner)
	case s.ExpiresAt.IsZero():
		return fmt.Sprintf("logged in as %s", s.Owner)
	}
	return fmt.Sprintf("logged in as %s until %s", s.Owner, s.ExpiresAt.Format(time.RFC3339))
}
