package cli

import (
	"sheetdesk/internal/store"

	"github.com/spf13/cobra"
)

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Workspace (tenant) commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List workspaces under the config dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := store.ListWorkspaces()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": names,
				"meta": map[string]any{"current": app.Workspace},
			})
		},
	})
	return cmd
}
