package cli

import (
	"strings"

	"sheetdesk/internal/model"
	"sheetdesk/internal/mutate"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsShowCmd(app))
	cmd.AddCommand(newProjectsEditCmd(app))
	cmd.AddCommand(newProjectsArchiveCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var (
		clientID string
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			clientID = strings.TrimSpace(clientID)
			out := []model.Project{}
			for _, p := range db.Projects {
				if clientID != "" && p.ClientID != clientID {
					continue
				}
				if p.Archived && !all {
					continue
				}
				out = append(out, p)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "Only projects of this client")
	cmd.Flags().BoolVar(&all, "all", false, "Include archived projects")
	return cmd
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var clientID, name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a project to a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.CreateProject(db, actorID, s.NextID(db, "prj"), clientID, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "project.create", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "Client id")
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with its open tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			p, ok := db.FindProject(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("project", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": p,
				"meta": map[string]any{"tasks": nonNil(db.TasksForProject(p.ID))},
			})
		},
	}
}

func newProjectsEditCmd(app *App) *cobra.Command {
	var (
		name, description, status string
		members                   []string
	)

	cmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Edit a project (opens the sheet editor unless field flags are given)",
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
			if !anyChanged(cmd, "name", "description", "status", "members") {
				return openSheet(cmd, app, s, actorID, tui.KindProject, args[0])
			}

			var patch mutate.ProjectPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}
			if cmd.Flags().Changed("members") {
				patch.MemberIDs = &members
			}
			res, err := mutate.UpdateProject(db, actorID, args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "project.update", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&description, "description", "", "Description (markdown)")
	cmd.Flags().StringVar(&status, "status", "", "Status (active|paused|closed)")
	cmd.Flags().StringSliceVar(&members, "members", nil, "Member user ids (comma-separated; replaces the list)")
	return cmd
}

func newProjectsArchiveCmd(app *App) *cobra.Command {
	var unarchive bool
	cmd := &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive (or --unarchive) a project",
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
			res, err := mutate.ArchiveProject(db, actorID, args[0], !unarchive)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "project.archive", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "Restore an archived project")
	return cmd
}
