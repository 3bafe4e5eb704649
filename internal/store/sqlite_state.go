package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sheetdesk/internal/model"

	_ "modernc.org/sqlite"
)

const stateVersion = 1

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.dbPath())
	if err != nil {
		return nil, err
	}
	// WAL gives one writer + many readers; busy_timeout rides out short lock contention
	// between the TUI and a concurrent CLI invocation.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			archived INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			archived INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			archived INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			priority INTEGER NOT NULL,
			archived INTEGER NOT NULL,
			owner_id TEXT NOT NULL,
			assignees_json TEXT NOT NULL,
			due_date TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date);`,
		`CREATE TABLE IF NOT EXISTS time_logs (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			minutes INTEGER NOT NULL,
			logged_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_task ON time_logs(task_id, logged_at_unixms);`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			entity_kind TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			issued_at_unixms INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, seq);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s Store) saveSQLite(ctx context.Context, st *DB) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", strconv.Itoa(stateVersion)); err != nil {
		return err
	}

	// Replace-all: the state is small and always written as one snapshot.
	for _, t := range []string{"users", "clients", "projects", "tasks", "time_logs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return err
		}
	}

	nowMs := time.Now().UTC().UnixMilli()

	for _, u := range st.Users {
		raw, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(id, name, role, archived, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, string(u.Role), boolToInt(u.Archived), string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, c := range st.Clients {
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO clients(id, name, archived, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			c.ID, c.Name, boolToInt(c.Archived), string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, p := range st.Projects {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id, client_id, name, status, archived, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ClientID, p.Name, string(p.Status), boolToInt(p.Archived), string(raw), nowMs); err != nil {
			return err
		}
	}
	for _, t := range st.Tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return err
		}
		due := ""
		if t.Due != nil {
			due = strings.TrimSpace(*t.Due)
		}
		assignees, _ := json.Marshal(t.AssigneeIDs)
		if _, err := tx.ExecContext(ctx, `INSERT INTO tasks(
			id, project_id, title, status,
			priority, archived,
			owner_id, assignees_json, due_date,
			json, updated_at_unixms
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.ProjectID, t.Title, string(t.Status),
			boolToInt(t.Priority), boolToInt(t.Archived),
			strings.TrimSpace(t.OwnerID), string(assignees), due,
			string(raw), nowMs,
		); err != nil {
			return err
		}
	}
	for _, l := range st.TimeLogs {
		raw, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO time_logs(id, task_id, user_id, minutes, logged_at_unixms, json) VALUES(?, ?, ?, ?, ?, ?)`,
			l.ID, l.TaskID, l.UserID, l.Minutes, l.LoggedAt.UTC().UnixMilli(), string(raw)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func loadStateFromSQLite(ctx context.Context, db *sql.DB) (*DB, error) {
	out := &DB{Version: stateVersion}

	var v string
	err := db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, "version").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			out.Version = n
		}
	}

	if out.Users, err = readJSONRows[model.User](ctx, db, `SELECT json FROM users ORDER BY name`); err != nil {
		return nil, err
	}
	if out.Clients, err = readJSONRows[model.Client](ctx, db, `SELECT json FROM clients ORDER BY name`); err != nil {
		return nil, err
	}
	if out.Projects, err = readJSONRows[model.Project](ctx, db, `SELECT json FROM projects ORDER BY name`); err != nil {
		return nil, err
	}
	if out.Tasks, err = readJSONRows[model.Task](ctx, db, `SELECT json FROM tasks ORDER BY project_id, rowid`); err != nil {
		return nil, err
	}
	if out.TimeLogs, err = readJSONRows[model.TimeLog](ctx, db, `SELECT json FROM time_logs ORDER BY logged_at_unixms`); err != nil {
		return nil, err
	}
	return out, nil
}

// readJSONRows decodes one JSON column per row. It never returns a nil slice so
// callers and encoders see [] rather than null.
func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
