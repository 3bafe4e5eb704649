package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

func testDB() *store.DB {
	now := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	due := "2026-01-15"
	return &store.DB{
		Version: 1,
		Users: []model.User{
			{ID: "usr-ada", Name: "Ada", Role: model.RoleAdmin, CreatedAt: now},
			{ID: "usr-mo", Name: "Mo", Role: model.RoleMember, CreatedAt: now},
		},
		Clients: []model.Client{
			{ID: "cli-acme", Name: "Acme", CreatedBy: "usr-ada", CreatedAt: now, UpdatedAt: now},
		},
		Projects: []model.Project{
			{ID: "prj-web", ClientID: "cli-acme", Name: "Website", Status: model.ProjectActive, MemberIDs: []string{"usr-mo"}, CreatedBy: "usr-ada", CreatedAt: now, UpdatedAt: now},
		},
		Tasks: []model.Task{
			{ID: "tsk-a", ProjectID: "prj-web", Title: "Fix login", Description: "Users get **logged out**.", Status: model.TaskDoing, Priority: true, Due: &due, OwnerID: "usr-ada", AssigneeIDs: []string{"usr-mo"}, CreatedBy: "usr-ada", CreatedAt: now, UpdatedAt: now},
			{ID: "tsk-b", ProjectID: "prj-web", Title: "Ship footer", Status: model.TaskDone, OwnerID: "usr-ada", CreatedBy: "usr-ada", CreatedAt: now, UpdatedAt: now},
			{ID: "tsk-c", ProjectID: "prj-web", Title: "Old idea", Status: model.TaskTodo, OwnerID: "usr-ada", CreatedBy: "usr-ada", CreatedAt: now, UpdatedAt: now, Archived: true},
		},
		TimeLogs: []model.TimeLog{
			{ID: "tl-2", TaskID: "tsk-a", UserID: "usr-mo", Minutes: 45, LoggedAt: now.Add(2 * time.Hour)},
			{ID: "tl-1", TaskID: "tsk-a", UserID: "usr-mo", Minutes: 30, Note: "repro", LoggedAt: now.Add(time.Hour)},
		},
	}
}

func TestRenderTaskMarkdown_IncludesMetaDescriptionAndTimeLog(t *testing.T) {
	t.Parallel()

	md, err := RenderTaskMarkdown(testDB(), "tsk-a", RenderOptions{IncludeTimeLog: true})
	if err != nil {
		t.Fatalf("RenderTaskMarkdown: %v", err)
	}
	for _, want := range []string{
		"# Fix login",
		"- Project: Website (prj-web)",
		"- Status: doing",
		"- Due: 2026-01-15",
		"- Assignees: Mo",
		"- Time logged: 1h15m",
		"## Description",
		"Users get **logged out**.",
		"## Time log",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
	if strings.Index(md, "repro") > strings.Index(md, "Mo 45m") {
		t.Fatalf("expected time log oldest first:\n%s", md)
	}
}

func TestRenderTaskMarkdown_ArchivedNeedsOptIn(t *testing.T) {
	t.Parallel()

	db := testDB()
	if _, err := RenderTaskMarkdown(db, "tsk-c", RenderOptions{}); err == nil {
		t.Fatalf("expected archived task to be refused")
	}
	if _, err := RenderTaskMarkdown(db, "tsk-c", RenderOptions{IncludeArchived: true}); err != nil {
		t.Fatalf("RenderTaskMarkdown with IncludeArchived: %v", err)
	}
	if _, err := RenderTaskMarkdown(db, "tsk-missing", RenderOptions{}); err == nil {
		t.Fatalf("expected missing task error")
	}
}

func TestRenderProjectIndexMarkdown_GroupsByStatus(t *testing.T) {
	t.Parallel()

	db := testDB()
	tasks := []*model.Task{&db.Tasks[0], &db.Tasks[1]}
	md, err := RenderProjectIndexMarkdown(db, "prj-web", tasks, RenderOptions{})
	if err != nil {
		t.Fatalf("RenderProjectIndexMarkdown: %v", err)
	}
	if !strings.Contains(md, "- Client: Acme") || !strings.Contains(md, "- Members: Mo") {
		t.Fatalf("expected client and members, got:\n%s", md)
	}
	if !strings.Contains(md, "- [Fix login](tasks/tsk-a.md) due 2026-01-15 (priority)") {
		t.Fatalf("expected linked task line, got:\n%s", md)
	}
	if strings.Index(md, "### In progress") > strings.Index(md, "### Done") {
		t.Fatalf("expected in-progress tasks before done, got:\n%s", md)
	}
	if strings.Contains(md, "### To do") {
		t.Fatalf("expected empty status groups to be skipped, got:\n%s", md)
	}
}

func TestWriteProject_WritesIndexAndTasks(t *testing.T) {
	t.Parallel()

	to := t.TempDir()
	res, err := WriteProject(testDB(), "prj-web", to, WriteOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("WriteProject: %v", err)
	}
	if len(res.Written) != 3 {
		t.Fatalf("expected index + 2 task pages; got %d (%v)", len(res.Written), res.Written)
	}
	for _, p := range []string{
		filepath.Join(to, "projects", "prj-web", "index.md"),
		filepath.Join(to, "projects", "prj-web", "tasks", "tsk-a.md"),
		filepath.Join(to, "projects", "prj-web", "tasks", "tsk-b.md"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(to, "projects", "prj-web", "tasks", "tsk-c.md")); err == nil {
		t.Fatalf("expected archived task page to be skipped")
	}
}

func TestWriteTask_RefusesOverwriteByDefault(t *testing.T) {
	t.Parallel()

	to := t.TempDir()
	db := testDB()
	if _, err := WriteTask(db, "tsk-b", to, WriteOptions{}); err != nil {
		t.Fatalf("WriteTask: %v", err)
	}
	if _, err := WriteTask(db, "tsk-b", to, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite refusal; got %v", err)
	}
	if _, err := WriteTask(db, "tsk-b", to, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("WriteTask with Overwrite: %v", err)
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	cases := map[int]string{0: "0m", 45: "45m", 60: "1h", 75: "1h15m", 125: "2h05m"}
	for in, want := range cases {
		if got := formatMinutes(in); got != want {
			t.Fatalf("formatMinutes(%d) = %q; want %q", in, got, want)
		}
	}
}
