package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the workspace store",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Save(cmd.Context(), db); err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("workspace initialized", "dir", s.Dir)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        s.Dir,
					"workspace":  app.Workspace,
					"sqlitePath": filepath.Join(s.Dir, "sheetdesk.sqlite"),
					"users":      len(db.Users),
				},
			})
		},
	}
	return cmd
}
