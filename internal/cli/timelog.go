package cli

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/mutate"

	"github.com/spf13/cobra"
)

func newTimelogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelog",
		Short: "Time tracking against tasks",
	}
	cmd.AddCommand(newTimelogAddCmd(app))
	cmd.AddCommand(newTimelogListCmd(app))
	return cmd
}

func newTimelogAddCmd(app *App) *cobra.Command {
	var (
		minutes int
		spent   time.Duration
		note    string
		at      string
	)

	cmd := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Log time on a task (--minutes or --duration)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("duration") {
				minutes = int(spent / time.Minute)
			}
			if !anyChanged(cmd, "minutes", "duration") {
				return writeErr(cmd, errMissingFlag("minutes"))
			}
			var when time.Time
			if at = strings.TrimSpace(at); at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					return writeErr(cmd, err)
				}
			}
			res, err := mutate.LogTime(db, actorID, s.NextID(db, "tl"), args[0], minutes, note, when)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "timelog.create", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Minutes spent")
	cmd.Flags().DurationVar(&spent, "duration", 0, "Time spent as a duration (e.g. 1h30m)")
	cmd.Flags().StringVar(&note, "note", "", "What the time was spent on")
	cmd.Flags().StringVar(&at, "at", "", "When the work happened (RFC3339; default now)")
	cmd.MarkFlagsMutuallyExclusive("minutes", "duration")
	return cmd
}

func newTimelogListCmd(app *App) *cobra.Command {
	var (
		taskID string
		userID string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List time entries (newest first when filtered by task)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			taskID = strings.TrimSpace(taskID)
			userID = strings.TrimSpace(userID)

			logs := db.TimeLogs
			if taskID != "" {
				logs = db.TimeLogsForTask(taskID)
			}
			out := []model.TimeLog{}
			total := 0
			for _, l := range logs {
				if userID != "" && l.UserID != userID {
					continue
				}
				out = append(out, l)
				total += l.Minutes
			}
			return writeOut(cmd, app, map[string]any{"data": out, "meta": map[string]any{"minutes": total}})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "Only entries for this task")
	cmd.Flags().StringVar(&userID, "user", "", "Only entries by this user")
	return cmd
}
