package tui

import (
	"context"
	"io"
	"log/slog"

	"sheetdesk/internal/sheet"
	"sheetdesk/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// EditOptions selects the entity to edit and how the sheet behaves.
type EditOptions struct {
	Store   store.Store
	ActorID string
	Kind    Kind
	ID      string

	Limits   sheet.Limits
	Platform sheet.Platform
	// Clock drives the coalescing timers; nil means the system clock.
	Clock  sheet.Clock
	Logger *slog.Logger

	Input  io.Reader
	Output io.Writer
}

// EditOutcome summarizes a finished sheet session.
type EditOutcome struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id"`
	Saves     int    `json:"saves"`
	Changed   bool   `json:"changed"`
	Discarded bool   `json:"discarded"`
	Snapshots int    `json:"snapshots"`
}

// Edit runs the sheet editor for one entity until the user closes it.
func Edit(ctx context.Context, opts EditOptions) (EditOutcome, error) {
	db, err := opts.Store.Load(ctx)
	if err != nil {
		return EditOutcome{}, err
	}
	m, err := newSheetModel(ctx, opts, db)
	if err != nil {
		return EditOutcome{}, err
	}

	applyThemePreference()
	applyColorProfilePreference()

	popts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Input != nil {
		popts = append(popts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		popts = append(popts, tea.WithOutput(opts.Output))
	}
	_, runErr := tea.NewProgram(m, popts...).Run()
	// A context cancel or kill skips close(); make sure the session ends cleanly.
	m.close()
	return m.outcome(), runErr
}
