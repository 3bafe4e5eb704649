package publish

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/store"
)

type RenderOptions struct {
	IncludeArchived bool
	IncludeTimeLog  bool
}

func RenderTaskMarkdown(db *store.DB, taskID string, opt RenderOptions) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	task, ok := db.FindTask(taskID)
	if !ok {
		return "", fmt.Errorf("task not found: %s", taskID)
	}
	if task.Archived && !opt.IncludeArchived {
		return "", fmt.Errorf("task archived (use --include-archived): %s", task.ID)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(task.Title))
	writeLn("")

	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + task.ID)
	if p, ok := db.FindProject(task.ProjectID); ok {
		writeLn("- Project: " + strings.TrimSpace(p.Name) + " (" + task.ProjectID + ")")
	} else {
		writeLn("- Project: " + task.ProjectID)
	}
	writeLn("- Status: " + string(task.Status))
	if task.Priority {
		writeLn("- Priority: true")
	}
	if task.Due != nil && strings.TrimSpace(*task.Due) != "" {
		writeLn("- Due: " + strings.TrimSpace(*task.Due))
	}
	if task.Archived {
		writeLn("- Archived: true")
	}
	if strings.TrimSpace(task.OwnerID) != "" {
		writeLn("- Owner: " + userLabel(db, task.OwnerID))
	}
	if len(task.AssigneeIDs) > 0 {
		writeLn("- Assignees: " + userLabels(db, task.AssigneeIDs))
	}
	writeLn("- Time logged: " + formatMinutes(db.MinutesForTask(task.ID)))
	writeLn("- Created: " + task.CreatedAt.UTC().Format(time.RFC3339))
	writeLn("- Updated: " + task.UpdatedAt.UTC().Format(time.RFC3339))

	if desc := strings.TrimSpace(task.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}

	if opt.IncludeTimeLog {
		logs := db.TimeLogsForTask(task.ID)
		// Reports read top to bottom, oldest first.
		sort.SliceStable(logs, func(i, j int) bool { return logs[i].LoggedAt.Before(logs[j].LoggedAt) })
		if len(logs) > 0 {
			writeLn("")
			writeLn("## Time log")
			writeLn("")
			for _, l := range logs {
				line := fmt.Sprintf("- %s %s %s", l.LoggedAt.UTC().Format("2006-01-02"), userLabel(db, l.UserID), formatMinutes(l.Minutes))
				if note := strings.TrimSpace(l.Note); note != "" {
					line += ": " + note
				}
				writeLn(line)
			}
		}
	}

	return buf.String(), nil
}

func RenderProjectIndexMarkdown(db *store.DB, projectID string, tasks []*model.Task, opt RenderOptions) (string, error) {
	if db == nil {
		return "", fmt.Errorf("missing db")
	}
	p, ok := db.FindProject(projectID)
	if !ok {
		return "", fmt.Errorf("project not found: %s", projectID)
	}
	if p.Archived && !opt.IncludeArchived {
		return "", fmt.Errorf("project archived (use --include-archived): %s", p.ID)
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(p.Name) + " (" + p.ID + ")")
	writeLn("")
	if c, ok := db.FindClient(p.ClientID); ok {
		writeLn("- Client: " + strings.TrimSpace(c.Name))
	}
	writeLn("- Status: " + string(p.Status))
	if len(p.MemberIDs) > 0 {
		writeLn("- Members: " + userLabels(db, p.MemberIDs))
	}
	total := 0
	for _, t := range tasks {
		total += db.MinutesForTask(t.ID)
	}
	writeLn("- Time logged: " + formatMinutes(total))
	writeLn("")

	if desc := strings.TrimSpace(p.Description); desc != "" {
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
		writeLn("")
	}

	writeLn("## Tasks")
	for _, st := range taskStatusOrder {
		group := tasksWithStatus(tasks, st)
		if len(group) == 0 {
			continue
		}
		writeLn("")
		writeLn("### " + statusHeading(st))
		writeLn("")
		for _, t := range group {
			line := fmt.Sprintf("- [%s](tasks/%s.md)", strings.TrimSpace(t.Title), t.ID)
			if t.Due != nil && strings.TrimSpace(*t.Due) != "" {
				line += " due " + strings.TrimSpace(*t.Due)
			}
			if t.Priority {
				line += " (priority)"
			}
			writeLn(line)
		}
	}

	return buf.String(), nil
}

var taskStatusOrder = []model.TaskStatus{model.TaskDoing, model.TaskBlocked, model.TaskTodo, model.TaskDone}

func statusHeading(st model.TaskStatus) string {
	switch st {
	case model.TaskDoing:
		return "In progress"
	case model.TaskBlocked:
		return "Blocked"
	case model.TaskTodo:
		return "To do"
	case model.TaskDone:
		return "Done"
	default:
		return string(st)
	}
}

// tasksWithStatus keeps priority tasks first, then orders by due date (undated
// last) and title.
func tasksWithStatus(tasks []*model.Task, st model.TaskStatus) []*model.Task {
	out := make([]*model.Task, 0)
	for _, t := range tasks {
		if t.Status == st {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority
		}
		ad, bd := dueKey(a), dueKey(b)
		if ad != bd {
			return ad < bd
		}
		return a.Title < b.Title
	})
	return out
}

func dueKey(t *model.Task) string {
	if t.Due == nil || strings.TrimSpace(*t.Due) == "" {
		return "9999-99-99"
	}
	return strings.TrimSpace(*t.Due)
}

func userLabel(db *store.DB, id string) string {
	if u, ok := db.FindUser(id); ok {
		return strings.TrimSpace(u.Name)
	}
	return id
}

func userLabels(db *store.DB, ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, userLabel(db, id))
	}
	return strings.Join(out, ", ")
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
