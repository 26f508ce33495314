package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/taigit/internal/importer"
)

// RunBrowser starts the interactive table browser
func RunBrowser(table Table, toggle ToggleFunc) error {
	p := tea.NewProgram(NewBrowserModel(table, toggle), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RunSync runs a sync behind a spinner and prints its report once the program exits
func RunSync(ctx context.Context, label string, run SyncFunc) (importer.Report, error) {
	p := tea.NewProgram(NewSyncModel(ctx, label, run))
	finalModel, err := p.Run()
	if err != nil {
		return importer.Report{}, err
	}

	report := finalModel.(SyncModel).Report()
	fmt.Print(FormatReport(report))
	return report, nil
}
