package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings (config.yaml + SHEETDESK_* env)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, map[string]any{
				"data": app.Config,
				"meta": map[string]any{
					"workspace": app.Workspace,
					"actor":     app.ActorID,
				},
			})
		},
	})
	return cmd
}
