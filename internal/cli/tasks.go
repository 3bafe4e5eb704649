package cli

import (
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/mutate"
	"sheetdesk/internal/store"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksStatusCmd(app))
	cmd.AddCommand(newTasksAssignCmd(app))
	cmd.AddCommand(newTasksArchiveCmd(app))
	return cmd
}

type taskFilter struct {
	projectID  string
	status     string
	assigneeID string
	all        bool
}

func (f taskFilter) match(t model.Task) bool {
	if t.Archived && !f.all {
		return false
	}
	if f.projectID != "" && t.ProjectID != f.projectID {
		return false
	}
	if f.status != "" && string(t.Status) != f.status {
		return false
	}
	if f.assigneeID != "" && !t.IsAssigned(f.assigneeID) {
		return false
	}
	return true
}

func newTasksListCmd(app *App) *cobra.Command {
	var (
		f    taskFilter
		mine bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			f.projectID = strings.TrimSpace(f.projectID)
			f.assigneeID = strings.TrimSpace(f.assigneeID)
			if f.status != "" {
				st, err := store.ParseTaskStatus(f.status)
				if err != nil {
					return writeErr(cmd, err)
				}
				f.status = string(st)
			}
			if mine {
				actorID, err := currentActorID(app, db)
				if err != nil {
					return writeErr(cmd, err)
				}
				f.assigneeID = actorID
			}

			out := []model.Task{}
			for _, t := range db.Tasks {
				if f.match(t) {
					out = append(out, t)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&f.projectID, "project", "", "Only tasks of this project")
	cmd.Flags().StringVar(&f.status, "status", "", "Only tasks with this status (todo|doing|blocked|done)")
	cmd.Flags().StringVar(&f.assigneeID, "assignee", "", "Only tasks assigned to this user")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only tasks assigned to the acting user")
	cmd.Flags().BoolVar(&f.all, "all", false, "Include archived tasks")
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var (
		projectID, title, description, due string
		priority                           bool
		assignees                          []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.CreateTask(db, actorID, s.NextID(db, "tsk"), projectID, title)
			if err != nil {
				return writeErr(cmd, err)
			}
			id := res.Entity.ID

			var patch mutate.TaskPatch
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("due") {
				patch.Due = &due
			}
			if priority {
				patch.Priority = &priority
			}
			if cmd.Flags().Changed("assign") {
				patch.AssigneeIDs = &assignees
			}
			if patch != (mutate.TaskPatch{}) {
				upd, err := mutate.UpdateTask(db, actorID, id, patch)
				if err != nil {
					return writeErr(cmd, err)
				}
				for k, v := range upd.EventPayload {
					res.EventPayload[k] = v
				}
				res.Entity = upd.Entity
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "task.create", id, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id")
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&priority, "priority", false, "Mark as priority")
	cmd.Flags().StringSliceVar(&assignees, "assign", nil, "Assignee user ids (comma-separated)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its time log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, ok := db.FindTask(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": t,
				"meta": map[string]any{
					"minutes":  db.MinutesForTask(t.ID),
					"timeLogs": nonNil(db.TimeLogsForTask(t.ID)),
				},
			})
		},
	}
}

func newTasksEditCmd(app *App) *cobra.Command {
	var (
		title, description, due string
		priority                bool
		assignees               []string
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task (opens the sheet editor unless field flags are given)",
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
			if !anyChanged(cmd, "title", "description", "due", "priority", "assignees") {
				return openSheet(cmd, app, s, actorID, tui.KindTask, args[0])
			}

			var patch mutate.TaskPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("due") {
				patch.Due = &due
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = &priority
			}
			if cmd.Flags().Changed("assignees") {
				patch.AssigneeIDs = &assignees
			}
			res, err := mutate.UpdateTask(db, actorID, args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "task.update", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD; empty clears)")
	cmd.Flags().BoolVar(&priority, "priority", false, "Priority flag (--priority=false clears)")
	cmd.Flags().StringSliceVar(&assignees, "assignees", nil, "Assignee user ids (comma-separated; replaces the list)")
	return cmd
}

func newTasksStatusCmd(app *App) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "status <task-id> <todo|doing|blocked|done>",
		Short: "Set a task's status (blocked requires --note)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			var notePtr *string
			if cmd.Flags().Changed("note") {
				notePtr = &note
			}
			res, err := mutate.SetTaskStatus(db, actorID, args[0], args[1], notePtr)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "task.set_status", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Status note")
	return cmd
}

func newTasksAssignCmd(app *App) *cobra.Command {
	var unassign bool
	cmd := &cobra.Command{
		Use:   "assign <task-id> <user-id>",
		Short: "Assign (or --unassign) a user to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			var res mutate.Result[model.Task]
			if unassign {
				res, err = mutate.UnassignTask(db, actorID, args[0], args[1])
			} else {
				res, err = mutate.AssignTask(db, actorID, args[0], args[1])
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "task.assign", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().BoolVar(&unassign, "unassign", false, "Remove the user instead")
	return cmd
}

func newTasksArchiveCmd(app *App) *cobra.Command {
	var unarchive bool
	cmd := &cobra.Command{
		Use:   "archive <task-id>",
		Short: "Archive (or --unarchive) a task",
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
			res, err := mutate.ArchiveTask(db, actorID, args[0], !unarchive)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "task.archive", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "Restore an archived task")
	return cmd
}
