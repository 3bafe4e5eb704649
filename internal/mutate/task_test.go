package mutate

import (
	"errors"
	"testing"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

func TestCreateTask(t *testing.T) {
	db := testDB()

	res, err := CreateTask(db, "u-mem", "t2", "p1", "  Copy  ")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if res.Entity.Title != "Copy" || res.Entity.OwnerID != "u-mem" || res.Entity.Status != model.TaskTodo {
		t.Fatalf("unexpected task: %+v", res.Entity)
	}
	if _, ok := db.FindTask("t2"); !ok {
		t.Fatalf("expected task appended to db")
	}

	if _, err := CreateTask(db, "u-other", "t3", "p1", "x"); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError for non-member, got %v", err)
	}
	if _, err := CreateTask(db, "u-mem", "t3", "p9", "x"); !errors.As(err, &NotFoundError{}) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if _, err := CreateTask(db, "u-mem", "t3", "p1", " "); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
}

func TestUpdateTask_AppliesPatch(t *testing.T) {
	db := testDB()
	res, err := UpdateTask(db, "u-mem", "t1", TaskPatch{
		Title:       ptr("Wireframes v2"),
		Description: ptr("Home + pricing"),
		Priority:    ptr(true),
		Due:         ptr("2026-05-01"),
		AssigneeIDs: &[]string{"u-other", " u-other ", "u-mem"},
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected change")
	}
	task, _ := db.FindTask("t1")
	if task.Title != "Wireframes v2" || !task.Priority || task.Due == nil || *task.Due != "2026-05-01" {
		t.Fatalf("unexpected task: %+v", task)
	}
	if len(task.AssigneeIDs) != 2 || task.AssigneeIDs[0] != "u-other" {
		t.Fatalf("expected deduped assignees, got %v", task.AssigneeIDs)
	}
	for _, k := range []string{"title", "description", "priority", "due", "assigneeIds"} {
		if _, ok := res.EventPayload[k]; !ok {
			t.Fatalf("expected %q in payload %v", k, res.EventPayload)
		}
	}

	res, err = UpdateTask(db, "u-mem", "t1", TaskPatch{Title: ptr("Wireframes v2"), Due: ptr("2026-05-01")})
	if err != nil || res.Changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", res.Changed, err)
	}

	res, err = UpdateTask(db, "u-mem", "t1", TaskPatch{Due: ptr("")})
	if err != nil || !res.Changed || task.Due != nil {
		t.Fatalf("expected due cleared, got %+v (%v)", task.Due, err)
	}
}

func TestUpdateTask_RejectsWithoutPartialWrites(t *testing.T) {
	db := testDB()
	_, err := UpdateTask(db, "u-mem", "t1", TaskPatch{Title: ptr("New"), Due: ptr("05/01/2026")})
	if !errors.Is(err, ErrInvalidDue) {
		t.Fatalf("expected ErrInvalidDue, got %v", err)
	}
	task, _ := db.FindTask("t1")
	if task.Title != "Wireframes" {
		t.Fatalf("expected title untouched, got %q", task.Title)
	}

	if _, err := UpdateTask(db, "u-mem", "t1", TaskPatch{AssigneeIDs: &[]string{"u-nobody"}}); !errors.As(err, &NotFoundError{}) {
		t.Fatalf("expected NotFoundError for unknown assignee, got %v", err)
	}
	if _, err := UpdateTask(db, "u-view", "t1", TaskPatch{Title: ptr("x")}); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError for viewer, got %v", err)
	}
}

func TestSetTaskStatus(t *testing.T) {
	db := testDB()

	if _, err := SetTaskStatus(db, "u-mem", "t1", "blocked", nil); !errors.Is(err, ErrStatusNoteRequired) {
		t.Fatalf("expected ErrStatusNoteRequired, got %v", err)
	}
	res, err := SetTaskStatus(db, "u-mem", "t1", "blocked", ptr("waiting on copy"))
	if err != nil {
		t.Fatalf("SetTaskStatus: %v", err)
	}
	if res.Entity.Status != model.TaskBlocked || res.EventPayload["statusNote"] != "waiting on copy" {
		t.Fatalf("unexpected result: %+v %v", res.Entity, res.EventPayload)
	}
	if _, err := SetTaskStatus(db, "u-mem", "t1", "someday", nil); !errors.Is(err, store.ErrInvalidTaskStatus) {
		t.Fatalf("expected ErrInvalidTaskStatus, got %v", err)
	}
	res, err = SetTaskStatus(db, "u-mem", "t1", "blocked", nil)
	if err != nil || res.Changed {
		t.Fatalf("expected same-status no-op, got changed=%v err=%v", res.Changed, err)
	}
}

func TestAssignAndUnassign(t *testing.T) {
	db := testDB()

	if _, err := AssignTask(db, "u-mem", "t1", "u-other"); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	res, err := AssignTask(db, "u-mem", "t1", "u-other")
	if err != nil || res.Changed {
		t.Fatalf("expected repeat assign to be a no-op, got changed=%v err=%v", res.Changed, err)
	}
	// The assignee can now edit the task too.
	if _, err := AssignTask(db, "u-other", "t1", "u-admin"); err != nil {
		t.Fatalf("assignee AssignTask: %v", err)
	}
	task, _ := db.FindTask("t1")
	if len(task.AssigneeIDs) != 2 {
		t.Fatalf("expected 2 assignees, got %v", task.AssigneeIDs)
	}

	if _, err := UnassignTask(db, "u-mem", "t1", "u-other"); err != nil {
		t.Fatalf("UnassignTask: %v", err)
	}
	if task.IsAssigned("u-other") || !task.IsAssigned("u-admin") {
		t.Fatalf("unexpected assignees: %v", task.AssigneeIDs)
	}
	if _, err := SetTaskAssignees(db, "u-mem", "t1", nil); err != nil || len(task.AssigneeIDs) != 0 {
		t.Fatalf("expected assignees cleared, got %v (%v)", task.AssigneeIDs, err)
	}
}

func TestArchiveTask(t *testing.T) {
	db := testDB()
	res, err := ArchiveTask(db, "u-mem", "t1", true)
	if err != nil || !res.Changed || !res.Entity.Archived {
		t.Fatalf("expected archived, got %+v (%v)", res, err)
	}
	res, err = ArchiveTask(db, "u-mem", "t1", true)
	if err != nil || res.Changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", res.Changed, err)
	}
	if _, err := ArchiveTask(db, "u-other", "t1", false); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}

func TestLogTime(t *testing.T) {
	db := testDB()
	res, err := LogTime(db, "u-mem", "log1", "t1", 30, " review ", time.Time{})
	if err != nil {
		t.Fatalf("LogTime: %v", err)
	}
	if res.Entity.UserID != "u-mem" || res.Entity.Note != "review" || res.Entity.LoggedAt.IsZero() {
		t.Fatalf("unexpected log: %+v", res.Entity)
	}
	if got := db.MinutesForTask("t1"); got != 30 {
		t.Fatalf("expected 30 minutes, got %d", got)
	}
	if _, err := LogTime(db, "u-mem", "log2", "t1", 0, "", time.Time{}); !errors.Is(err, ErrInvalidMinutes) {
		t.Fatalf("expected ErrInvalidMinutes, got %v", err)
	}
	if _, err := LogTime(db, "u-other", "log2", "t1", 5, "", time.Time{}); !errors.As(err, &PermissionError{}) {
		t.Fatalf("expected PermissionError, got %v", err)
	}
}
