package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sheetdesk/internal/config"
	"sheetdesk/internal/format"
	"sheetdesk/internal/store"
	"sheetdesk/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Workspace  string
	ActorID    string
	PrettyJSON bool
	Format     string
	Debug      bool

	Config *config.Config
	Log    *slog.Logger

	// editSheet opens the interactive sheet editor; tests replace it.
	editSheet func(ctx context.Context, opts tui.EditOptions) (tui.EditOutcome, error)
	logFile   io.Closer
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{editSheet: tui.Edit})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "sheetdesk",
		Short:        "Client/project/task portal with undoable edit sheets",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create the workspace and its first (admin) user
  sheetdesk init
  sheetdesk users add --name "Ada" --email ada@example.com

  # Scriptable commands
  sheetdesk --actor usr-k3vq9x2a tasks list --project prj-7hd2m1qa

  # Edit a task in the sheet editor (ctrl+z / ctrl+y undo and redo, ctrl+s saves)
  sheetdesk --actor usr-k3vq9x2a tasks edit tsk-0b4r8c2e

  # Direct task lookup (shortcut for: sheetdesk tasks show <task-id>)
  sheetdesk tsk-0b4r8c2e
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.teardown()
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("SHEETDESK_DIR", ""), "Path to store dir (overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", "", "Workspace (tenant) name (default: config 'workspace')")
	cmd.PersistentFlags().StringVar(&app.ActorID, "actor", "", "Acting user id (default: config 'actor')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("SHEETDESK_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Log at debug level")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newClientsCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newTimelogCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// setup loads config.yaml and opens the log file. Flags win over the config,
// which already folds in SHEETDESK_* variables.
func (app *App) setup() error {
	cfgDir, err := store.ConfigDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgDir)
	if err != nil {
		return err
	}
	app.Config = cfg
	if strings.TrimSpace(app.Workspace) == "" {
		app.Workspace = cfg.Workspace
	}
	if strings.TrimSpace(app.ActorID) == "" {
		app.ActorID = strings.TrimSpace(cfg.Actor)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if app.Debug {
		level = slog.LevelDebug
	}
	// The sheet editor owns the terminal, so logs always go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	app.logFile = f
	app.Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

func (app *App) teardown() error {
	if app.logFile == nil {
		return nil
	}
	err := app.logFile.Close()
	app.logFile = nil
	return err
}

func (app *App) logger() *slog.Logger {
	if app.Log == nil {
		return slog.Default()
	}
	return app.Log
}

func loadDB(ctx context.Context, app *App) (*store.DB, store.Store, error) {
	dir, err := store.ResolveDir(app.Dir, app.Workspace)
	if err != nil {
		return nil, store.Store{}, err
	}
	app.Dir = dir

	s := store.Store{Dir: dir}
	db, err := s.Load(ctx)
	if err != nil {
		return nil, s, err
	}
	return db, s, nil
}

// currentActorID returns the acting user and checks that it exists.
func currentActorID(app *App, db *store.DB) (string, error) {
	if app.ActorID == "" {
		return "", errNoActor
	}
	if _, ok := db.FindUser(app.ActorID); !ok {
		return "", errNotFound("user", app.ActorID)
	}
	return app.ActorID, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
