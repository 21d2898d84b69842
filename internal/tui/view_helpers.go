package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-studio-sync/models"
)

const uiDivider = "──────────────────────────────────────────────────────"

func renderPage(title, data, hotKeys string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(uiDivider)
	b.WriteString("\n\n")

	if strings.TrimSpace(data) != "" {
		b.WriteString(data)
		b.WriteString("\n")
	} else {
		b.WriteString("-\n")
	}

	if strings.TrimSpace(hotKeys) != "" {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(hotKeys))
	}

	return appStyle.Render(b.String())
}

// RenderSummary formats a finished migration.
func RenderSummary(s *models.MigrationSummary) string {
	if s == nil {
		return "no migration has run yet"
	}

	var b strings.Builder
	state := successStyle.Render("completed")
	switch {
	case s.Cancelled:
		state = errorStyle.Render("cancelled")
	case len(s.Failures) > 0:
		state = errorStyle.Render("completed with failures")
	}

	fmt.Fprintf(&b, "Migration %s in %s\n", state, s.FinishedAt.Sub(s.StartedAt).Round(10*time.Millisecond))
	fmt.Fprintf(&b, "Records:  %d\n", s.Total)
	fmt.Fprintf(&b, "Uploaded: %d\n", s.Uploaded)
	fmt.Fprintf(&b, "Skipped:  %d\n", s.Skipped)
	fmt.Fprintf(&b, "Failed:   %d", len(s.Failures))

	for _, f := range s.Failures {
		fmt.Fprintf(&b, "\n  %s/%s [%s] %s", f.Collection, valueOrDash(f.ID), f.Kind, fitText(f.Message, 60))
	}

	return summaryStyle.Render(b.String())
}

// RenderVersion formats the build of syncctl next to the daemon version.
func RenderVersion(local models.AppBuildInfo, daemon *models.VersionResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "syncctl: %s\n", local)
	if daemon == nil {
		b.WriteString("syncd:   unreachable")
	} else {
		fmt.Fprintf(&b, "syncd:   %s (%s, %s)", daemon.Version, valueOrNA(daemon.Commit), valueOrNA(daemon.Date))
	}

	return b.String()
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func valueOrNA(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "N/A"
	}
	return v
}

func fitText(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	if max <= 3 {
		return v[:max]
	}
	return v[:max-3] + "..."
}
