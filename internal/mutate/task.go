package mutate

import (
	"strings"
	"time"

	"sheetdesk/internal/model"
	"sheetdesk/internal/perm"
	"sheetdesk/internal/store"
)

// TaskPatch lists the task fields to change; nil fields are left alone.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	StatusNote  *string
	Priority    *bool
	Due         *string // "" clears
	AssigneeIDs *[]string
}

// CreateTask adds a task owned by actorID. Admins and members of the project may
// create tasks in it.
func CreateTask(db *store.DB, actorID, id, projectID, title string) (Result[model.Task], error) {
	actorID = strings.TrimSpace(actorID)
	title = strings.TrimSpace(title)
	p, ok := db.FindProject(projectID)
	if !ok {
		return Result[model.Task]{}, NotFoundError{Kind: "project", ID: strings.TrimSpace(projectID)}
	}
	if !perm.CanEditProject(db, actorID, p) {
		return Result[model.Task]{}, PermissionError{ActorID: actorID, Kind: "task"}
	}
	if title == "" {
		return Result[model.Task]{}, ErrTitleRequired
	}

	now := time.Now().UTC()
	db.Tasks = append(db.Tasks, model.Task{
		ID:        id,
		ProjectID: p.ID,
		Title:     title,
		Status:    model.TaskTodo,
		OwnerID:   actorID,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	t := &db.Tasks[len(db.Tasks)-1]
	return Result[model.Task]{
		Entity:       t,
		Changed:      true,
		EventPayload: map[string]any{"projectId": t.ProjectID, "title": t.Title},
	}, nil
}

// UpdateTask validates the whole patch before touching the task, so a rejected
// patch leaves it unchanged.
func UpdateTask(db *store.DB, actorID, taskID string, patch TaskPatch) (Result[model.Task], error) {
	t, err := editableTask(db, actorID, taskID)
	if err != nil {
		return Result[model.Task]{}, err
	}

	next := *t
	payload := map[string]any{}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Result[model.Task]{}, ErrTitleRequired
		}
		if title != next.Title {
			next.Title = title
			payload["title"] = title
		}
	}
	if patch.Description != nil && *patch.Description != next.Description {
		next.Description = *patch.Description
		payload["description"] = next.Description
	}
	if patch.Priority != nil && *patch.Priority != next.Priority {
		next.Priority = *patch.Priority
		payload["priority"] = next.Priority
	}
	if patch.Due != nil {
		due, err := NormalizeDue(*patch.Due)
		if err != nil {
			return Result[model.Task]{}, err
		}
		cur := ""
		if next.Due != nil {
			cur = *next.Due
		}
		if due != cur {
			if due == "" {
				next.Due = nil
				payload["due"] = nil
			} else {
				next.Due = &due
				payload["due"] = due
			}
		}
	}
	if patch.Status != nil {
		status, err := store.ParseTaskStatus(*patch.Status)
		if err != nil {
			return Result[model.Task]{}, err
		}
		if status != next.Status {
			if status == model.TaskBlocked && !hasNote(patch.StatusNote) {
				return Result[model.Task]{}, ErrStatusNoteRequired
			}
			payload["status"] = map[string]any{"from": string(next.Status), "to": string(status)}
			if hasNote(patch.StatusNote) {
				payload["statusNote"] = strings.TrimSpace(*patch.StatusNote)
			}
			next.Status = status
		}
	}
	if patch.AssigneeIDs != nil {
		ids, err := normalizeUserIDs(db, *patch.AssigneeIDs)
		if err != nil {
			return Result[model.Task]{}, err
		}
		if !sameIDs(ids, next.AssigneeIDs) {
			next.AssigneeIDs = ids
			payload["assigneeIds"] = ids
		}
	}

	if len(payload) == 0 {
		return Result[model.Task]{Entity: t, Changed: false}, nil
	}
	next.UpdatedAt = time.Now().UTC()
	*t = next
	return Result[model.Task]{Entity: t, Changed: true, EventPayload: payload}, nil
}

func editableTask(db *store.DB, actorID, taskID string) (*model.Task, error) {
	taskID = strings.TrimSpace(taskID)
	t, ok := db.FindTask(taskID)
	if !ok {
		return nil, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanEditTask(db, actorID, t) {
		return nil, PermissionError{ActorID: strings.TrimSpace(actorID), Kind: "task", ID: taskID}
	}
	return t, nil
}

func hasNote(note *string) bool {
	return note != nil && strings.TrimSpace(*note) != ""
}
