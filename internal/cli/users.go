package cli

import (
	"sheetdesk/internal/mutate"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User commands",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersAddCmd(app))
	cmd.AddCommand(newUsersShowCmd(app))
	cmd.AddCommand(newUsersEditCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if all {
				return writeOut(cmd, app, map[string]any{"data": db.Users})
			}
			return writeOut(cmd, app, map[string]any{"data": nonNil(db.ActiveUsers())})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include archived users")
	return cmd
}

func newUsersAddCmd(app *App) *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user (the first user becomes an admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			bootstrap := len(db.Users) == 0
			var actorID string
			if !bootstrap {
				if actorID, err = currentActorID(app, db); err != nil {
					return writeErr(cmd, err)
				}
			}
			res, err := mutate.CreateUser(db, actorID, s.NextID(db, "usr"), name, email, role)
			if err != nil {
				return writeErr(cmd, err)
			}
			u := res.Entity
			if bootstrap {
				// The first admin is its own creator.
				actorID = u.ID
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "user.create", u.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&role, "role", "member", "Role (admin|member|viewer)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUsersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			u, ok := db.FindUser(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("user", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"data": u})
		},
	}
}

func newUsersEditCmd(app *App) *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "edit <user-id>",
		Short: "Edit a user (opens the sheet editor unless field flags are given)",
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
			if !anyChanged(cmd, "name", "email", "role") {
				return openSheet(cmd, app, s, actorID, tui.KindUser, args[0])
			}

			var patch mutate.UserPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("role") {
				patch.Role = &role
			}
			res, err := mutate.UpdateUser(db, actorID, args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := commit(cmd.Context(), app, s, db, actorID, "user.update", res.Entity.ID, res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res.Entity, "meta": map[string]any{"changed": res.Changed}})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address (empty clears)")
	cmd.Flags().StringVar(&role, "role", "", "Role (admin|member|viewer)")
	return cmd
}
