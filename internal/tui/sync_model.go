package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/taigit/internal/importer"
)

// maxListedAnomalies caps the anomalies printed per entity
const maxListedAnomalies = 5

// SyncFunc performs a sync; it must return once ctx is cancelled
type SyncFunc func(ctx context.Context) importer.Report

// SyncModel shows a spinner and the elapsed time while a sync runs
type SyncModel struct {
	width int

	label   string
	run     SyncFunc
	ctx     context.Context
	cancel  context.CancelFunc
	spinner spinner.Model

	startedAt time.Time
	elapsed   time.Duration

	cancelling bool
	done       bool
	report     importer.Report
}

type syncTickMsg struct{}

type syncDoneMsg struct {
	report importer.Report
}

// NewSyncModel creates a sync model; the sync starts with Init
func NewSyncModel(ctx context.Context, label string, run SyncFunc) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	ctx, cancel := context.WithCancel(ctx)
	return SyncModel{
		label:     label,
		run:       run,
		ctx:       ctx,
		cancel:    cancel,
		spinner:   s,
		startedAt: time.Now(),
	}
}

func tickEverySecond() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return syncTickMsg{}
	})
}

func (m SyncModel) Init() tea.Cmd {
	run, ctx := m.run, m.ctx
	return tea.Batch(
		m.spinner.Tick,
		tickEverySecond(),
		func() tea.Msg {
			return syncDoneMsg{report: run(ctx)}
		},
	)
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncDoneMsg:
		m.done = true
		m.report = msg.report
		m.elapsed = time.Since(m.startedAt)
		m.cancel()
		return m, tea.Quit

	case syncTickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.startedAt)
		return m, tickEverySecond()

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			// wait for the sync to unwind so no table is left half written
			m.cancelling = true
			m.cancel()
		}
	}

	return m, nil
}

func (m SyncModel) View() string {
	if m.done {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true)

	line := fmt.Sprintf("%s %s %s", m.spinner.View(), labelStyle.Render(m.label), timeStyle.Render(formatDuration(m.elapsed)))
	help := helpStyle.Render("q/esc cancel")
	if m.cancelling {
		help = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("cancelling, waiting for running requests...")
	}
	return "\n " + line + "\n\n " + help + "\n"
}

// Report returns the finished sync report
func (m SyncModel) Report() importer.Report {
	return m.report
}

// FormatReport renders a sync report as plain text, one block per entity
func FormatReport(r importer.Report) string {
	var b strings.Builder
	for _, e := range r.Entities {
		if e.Err != nil {
			fmt.Fprintf(&b, "❌ %s: %v\n", e.Entity, e.Err)
			continue
		}
		fmt.Fprintf(&b, "✅ %s: %d fetched, %d added, %d updated, %d unchanged, %d retained (%d total) in %s\n",
			e.Entity, e.Fetched, e.Added, e.Updated, e.Unchanged, e.Retained, e.Total, formatDuration(e.Duration))

		if len(e.Collisions) > 0 {
			fmt.Fprintf(&b, "   ⚠️  duplicate keys: %s\n", strings.Join(e.Collisions, ", "))
		}
		if len(e.Anomalies) > 0 {
			fmt.Fprintf(&b, "   ⚠️  %d anomalies\n", len(e.Anomalies))
			for _, a := range e.Anomalies[:min(len(e.Anomalies), maxListedAnomalies)] {
				fmt.Fprintf(&b, "      - %v\n", a)
			}
			if len(e.Anomalies) > maxListedAnomalies {
				fmt.Fprintf(&b, "      ... and %d more\n", len(e.Anomalies)-maxListedAnomalies)
			}
		}
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d.Hours() >= 1 {
		return fmt.Sprintf("%.1fh", d.Hours())
	} else if d.Minutes() >= 1 {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
