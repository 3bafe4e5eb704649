package cli

import (
	"strings"

	"sheetdesk/internal/store"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

// openSheet runs the sheet editor for one entity and reports how it ended.
func openSheet(cmd *cobra.Command, app *App, s store.Store, actorID string, kind tui.Kind, id string) error {
	opts := tui.EditOptions{
		Store:    s,
		ActorID:  actorID,
		Kind:     kind,
		ID:       strings.TrimSpace(id),
		Limits:   app.Config.Limits(),
		Platform: app.Config.Platform(),
		Logger:   app.logger(),
		Input:    cmd.InOrStdin(),
		Output:   cmd.OutOrStdout(),
	}
	out, err := app.editSheet(cmd.Context(), opts)
	if err != nil {
		return writeErr(cmd, err)
	}
	// The editor drew on stdout; only the summary goes after it.
	return writeOut(cmd, app, map[string]any{"data": out})
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
