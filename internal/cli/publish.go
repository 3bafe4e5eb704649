package cli

import (
	"strings"

	"sheetdesk/internal/publish"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	var (
		toDir           string
		includeArchived bool
		includeTimeLog  bool
		overwrite       bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write Markdown reports for clients (derived, not canonical)",
	}

	projectCmd := &cobra.Command{
		Use:   "project <project-id>",
		Short: "Publish a project index plus one page per task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(toDir) == "" {
				return writeErr(cmd, errMissingFlag("to"))
			}
			res, err := publish.WriteProject(db, args[0], toDir, publish.WriteOptions{
				IncludeArchived: includeArchived,
				IncludeTimeLog:  includeTimeLog,
				Overwrite:       overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("published project", "project", args[0], "files", len(res.Written))
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
	taskCmd := &cobra.Command{
		Use:   "task <task-id>",
		Short: "Publish a single task as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if strings.TrimSpace(toDir) == "" {
				return writeErr(cmd, errMissingFlag("to"))
			}
			res, err := publish.WriteTask(db, args[0], toDir, publish.WriteOptions{
				IncludeArchived: includeArchived,
				IncludeTimeLog:  includeTimeLog,
				Overwrite:       overwrite,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Info("published task", "task", args[0])
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.PersistentFlags().StringVar(&toDir, "to", "", "Output directory")
	cmd.PersistentFlags().BoolVar(&includeArchived, "include-archived", false, "Include archived tasks")
	cmd.PersistentFlags().BoolVar(&includeTimeLog, "include-timelog", false, "Include time log entries")
	cmd.PersistentFlags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")

	cmd.AddCommand(projectCmd)
	cmd.AddCommand(taskCmd)
	return cmd
}
