package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sheetdesk/internal/model"
)

const dbFileName = "sheetdesk.sqlite"

// DB is the in-memory workspace state. Load returns a full copy; Save replaces the
// persisted state with it.
type DB struct {
	Version int `json:"version"`

	Users    []model.User    `json:"users"`
	Clients  []model.Client  `json:"clients"`
	Projects []model.Project `json:"projects"`
	Tasks    []model.Task    `json:"tasks"`
	TimeLogs []model.TimeLog `json:"timeLogs"`
}

type Store struct {
	Dir string
}

var ErrNilDB = errors.New("nil db")

// WorkspaceDir returns <configDir>/workspaces/<name>.
func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) dbPath() string {
	return filepath.Join(s.Dir, dbFileName)
}

// Exists reports whether the workspace has been initialized.
func (s Store) Exists() bool {
	_, err := os.Stat(s.dbPath())
	return err == nil
}

func (s Store) Load(ctx context.Context) (*DB, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return loadStateFromSQLite(ctx, db)
}

func (s Store) Save(ctx context.Context, st *DB) error {
	if st == nil {
		return ErrNilDB
	}
	return s.saveSQLite(ctx, st)
}

// NextID returns an unused id such as "tsk-k3vq9x2a".
func (s Store) NextID(db *DB, prefix string) string {
	for i := 0; i < 20; i++ {
		id, err := newRandomID(prefix)
		if err != nil {
			break
		}
		if !idExists(db, id) {
			return id
		}
	}
	// crypto/rand failed or kept colliding; fall back to a counter.
	for n := len(db.Users) + len(db.Clients) + len(db.Projects) + len(db.Tasks) + len(db.TimeLogs) + 1; ; n++ {
		id := fmt.Sprintf("%s-%d", prefix, n)
		if !idExists(db, id) {
			return id
		}
	}
}

func (db *DB) FindUser(id string) (*model.User, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Users {
		if db.Users[i].ID == id {
			return &db.Users[i], true
		}
	}
	return nil, false
}

func (db *DB) FindClient(id string) (*model.Client, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Clients {
		if db.Clients[i].ID == id {
			return &db.Clients[i], true
		}
	}
	return nil, false
}

func (db *DB) FindProject(id string) (*model.Project, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Projects {
		if db.Projects[i].ID == id {
			return &db.Projects[i], true
		}
	}
	return nil, false
}

func (db *DB) FindTask(id string) (*model.Task, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Tasks {
		if db.Tasks[i].ID == id {
			return &db.Tasks[i], true
		}
	}
	return nil, false
}

// ActiveUsers returns non-archived users sorted by name.
func (db *DB) ActiveUsers() []model.User {
	var out []model.User
	for _, u := range db.Users {
		if !u.Archived {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (db *DB) ProjectsForClient(clientID string) []model.Project {
	var out []model.Project
	for _, p := range db.Projects {
		if p.ClientID == clientID && !p.Archived {
			out = append(out, p)
		}
	}
	return out
}

func (db *DB) TasksForProject(projectID string) []model.Task {
	var out []model.Task
	for _, t := range db.Tasks {
		if t.ProjectID == projectID && !t.Archived {
			out = append(out, t)
		}
	}
	return out
}

// TimeLogsForTask returns the task's entries, newest first.
func (db *DB) TimeLogsForTask(taskID string) []model.TimeLog {
	var out []model.TimeLog
	for _, l := range db.TimeLogs {
		if l.TaskID == taskID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoggedAt.After(out[j].LoggedAt) })
	return out
}

// MinutesForTask sums the logged minutes of a task.
func (db *DB) MinutesForTask(taskID string) int {
	total := 0
	for _, l := range db.TimeLogs {
		if l.TaskID == taskID {
			total += l.Minutes
		}
	}
	return total
}

var (
	ErrInvalidRole          = errors.New("invalid role (expected admin|member|viewer)")
	ErrInvalidTaskStatus    = errors.New("invalid task status (expected todo|doing|blocked|done)")
	ErrInvalidProjectStatus = errors.New("invalid project status (expected active|paused|closed)")
)

func ParseRole(s string) (model.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return model.RoleAdmin, nil
	case "member", "":
		return model.RoleMember, nil
	case "viewer":
		return model.RoleViewer, nil
	default:
		return "", ErrInvalidRole
	}
}

func ParseTaskStatus(s string) (model.TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "":
		return model.TaskTodo, nil
	case "doing", "in-progress", "in_progress":
		return model.TaskDoing, nil
	case "blocked":
		return model.TaskBlocked, nil
	case "done":
		return model.TaskDone, nil
	default:
		return "", ErrInvalidTaskStatus
	}
}

func ParseProjectStatus(s string) (model.ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "":
		return model.ProjectActive, nil
	case "paused":
		return model.ProjectPaused, nil
	case "closed":
		return model.ProjectClosed, nil
	default:
		return "", ErrInvalidProjectStatus
	}
}
