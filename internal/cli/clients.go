package cli

import (
	"sheetdesk/internal/model"
	"sheetdesk/internal/mutate"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

func newClientsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Client commands",
	}
	cmd.AddCommand(newClientsListCmd(app))
	cmd.AddCommand(newClientsAddCmd(app))
	cmd.AddCommand(newClientsShowCmd(app))
	cmd.AddCommand(newClientsEditCmd(app))
	cmd.AddCommand(newClientsArchiveCmd(app))
	return cmd
}

func newClientsListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			out := []model.Client{}
			for _, c := range db.Clients {
				if all || !c.Archived {
					out = append(out, c)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include archived clients")
	return cmd
}

func newClientsAddCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			actorID, err := currentActorID(app, db)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := mutate.CreateClient(db, actorID, s.NextID(db, "cli"), name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "client.create", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Client name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newClientsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client with its projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, ok := db.FindClient(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("client", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": c,
				"meta": map[string]any{"projects": nonNil(db.ProjectsForClient(c.ID))},
			})
		},
	}
}

func newClientsEditCmd(app *App) *cobra.Command {
	var (
		name, email, phone, notes string
		managers                  []string
	)

	cmd := &cobra.Command{
		Use:   "edit <client-id>",
		Short: "Edit a client (opens the sheet editor unless field flags are given)",
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
			if !anyChanged(cmd, "name", "contact-email", "phone", "notes", "managers") {
				return openSheet(cmd, app, s, actorID, tui.KindClient, args[0])
			}

			var patch mutate.ClientPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("contact-email") {
				patch.ContactEmail = &email
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &phone
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("managers") {
				patch.ManagerIDs = &managers
			}
			res, err := mutate.UpdateClient(db, actorID, args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "client.update", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Client name")
	cmd.Flags().StringVar(&email, "contact-email", "", "Contact email (empty clears)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVar(&managers, "managers", nil, "Managing user ids (comma-separated; replaces the list)")
	return cmd
}

func newClientsArchiveCmd(app *App) *cobra.Command {
	var unarchive bool
	cmd := &cobra.Command{
		Use:   "archive <client-id>",
		Short: "Archive (or --unarchive) a client",
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
			res, err := mutate.ArchiveClient(db, actorID, args[0], !unarchive)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "client.archive", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity})
		},
	}
	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "Restore an archived client")
	return cmd
}
